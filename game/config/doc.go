// Package config manages the level files of the Sokoban server.
//
// Levels are JSON files in a single directory. The file name without its
// .json extension is the level identifier used when creating sessions:
//
//	{
//	  "name": "Classic",
//	  "description": "Two boxes, two goals",
//	  "layout": ["#######", "#  @  #", "# $ . #", "#######"],
//	  "messages": {"victory": "Solved in %d moves!"}
//	}
//
// Layout characters: # wall, space/-/_ floor, @ player, + player on goal,
// $ box, * box on goal, . goal.
//
// Loaded levels are validated and cached. The default level is classic when
// present, otherwise the first valid level, otherwise a built-in one.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal().Err(err).Msg("levels")
//	}
//	level, err := manager.LoadConfig("easy")
//	infos, err := manager.ListConfigs()
package config
