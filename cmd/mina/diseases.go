package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/fishcareyolo/mina/diagnosis"
)

func (rt *runtime) diseasesAction(c *cli.Context) error {
	infos := diagnosis.AllDiseaseInfo()
	if name := c.Args().First(); name != "" {
		info, ok := diagnosis.LookupDiseaseInfo(diagnosis.DiseaseClass(name))
		if !ok {
			return errors.Errorf("unknown disease class %q", name)
		}
		infos = []diagnosis.DiseaseInfo{info}
	}

	if c.Bool(flagJSON) {
		return printJSON(c, infos)
	}
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(c.App.Writer)
		}
		fmt.Fprintf(c.App.Writer, "%s (%s, %s severity, %s)\n", info.DisplayName, info.DiseaseClass, info.Severity,
			diagnosis.HexColor(diagnosis.BoundingBoxColor(info.DiseaseClass)))
		fmt.Fprintf(c.App.Writer, "  %s\n", info.Description)
		fmt.Fprintf(c.App.Writer, "  Symptoms:\n    - %s\n", strings.Join(info.Symptoms, "\n    - "))
		fmt.Fprintf(c.App.Writer, "  Treatments:\n    - %s\n", strings.Join(info.Treatments, "\n    - "))
	}
	return nil
}
