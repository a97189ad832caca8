package cmdflags

import (
	"github.com/urfave/cli/v2"
)

func DataDir(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = "./data"
	}
	return &cli.StringFlag{
		Name:        "data-dir",
		Aliases:     []string{"d"},
		Usage:       "Directory holding the tracker database",
		EnvVars:     []string{"TASKNEST_DATA_DIR"},
		Value:       *out,
		Destination: out,
	}
}
