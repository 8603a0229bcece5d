// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, newCommand, anniversaryCommand, topCommand, statsCommand, searchCommand, randomCommand, genresCommand, nowPlayingCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setupCommand writes the example config and initializes the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config file and initialize the snapshot database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path for the new configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// syncCommand runs a synchronization pass.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize the local snapshot with the server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Ignore the cache and re-fetch every album",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the pass summary as JSON",
			},
		},
		Action: r.Sync,
	}
}

// newCommand lists recently added albums.
func newCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "List albums added within a trailing window",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "hours",
				Usage: "Window size in hours",
				Value: 24,
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Force a full synchronization first",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, json, csv, markdown",
				Value: "text",
			},
		},
		Action: r.New,
	}
}

// anniversaryCommand lists albums released on a given day and month.
func anniversaryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "anniversary",
		Aliases: []string{"anniv"},
		Usage:   "List albums released on this day in music history",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "day",
				Usage: "Day of the month (defaults to today)",
			},
			&cli.IntFlag{
				Name:  "month",
				Usage: "Month of the year (defaults to today)",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Force a full synchronization first",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, json, csv, markdown",
				Value: "text",
			},
		},
		Action: r.Anniversary,
	}
}

// topCommand aggregates play history into a top-N ranking.
func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Most played albums over a trailing window",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Window size in days",
				Value: 7,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of albums to return",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Top,
	}
}

// statsCommand prints library statistics from the snapshot.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Library statistics derived from the snapshot",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Stats,
	}
}

// searchCommand queries the server directly.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search albums by artist or title",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of albums to return",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// randomCommand picks one random album.
func randomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "random",
		Usage:  "Pick a random album from the library",
		Action: r.Random,
	}
}

// nowPlayingCommand shows what is playing on the server right now.
func nowPlayingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "now",
		Usage: "Show what is currently playing on the server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.NowPlaying,
	}
}

// genresCommand lists genres or albums within one genre.
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "List genres, or albums for one genre",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "genre",
				Usage: "Show albums for this genre instead",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of albums to return",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Genres,
	}
}
