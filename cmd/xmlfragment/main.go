// Command xmlfragment runs the XML echo transform on a local file or stdin and
// prints the extracted fragment.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/takotakot/xml_echo/transform"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.SetFlags(0)
		log.Fatal(err)
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "xmlfragment",
		Usage:     "validate an XML document and print the selected element",
		ArgsUsage: "[FILE|-]",
		Reader:    stdin,
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML file with root_tag, fragment_tag and options"},
			&cli.StringFlag{Name: "root", Value: transform.DefaultRootTag, Usage: "required root element tag, * for any"},
			&cli.StringFlag{Name: "fragment", Usage: "print the first child of the root with this tag instead of the root"},
			&cli.BoolFlag{Name: "trim", Usage: "trim whitespace around text nodes"},
			&cli.BoolFlag{Name: "normalize", Usage: "collapse whitespace runs inside text nodes"},
			&cli.BoolFlag{Name: "ignore-attrs", Usage: "drop attributes"},
			&cli.BoolFlag{Name: "merge-attrs", Usage: "turn attributes into child elements"},
			&cli.StringFlag{Name: "empty-tag", Usage: "text for empty elements"},
		},
		Action: fragmentAction,
	}
}

func fragmentAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("expected at most one input file, got %d", c.NArg())
	}

	cfg, err := configFromContext(c)
	if err != nil {
		return err
	}
	t, err := transform.New(cfg)
	if err != nil {
		return err
	}

	var input []byte
	switch path := c.Args().First(); path {
	case "", "-":
		input, err = io.ReadAll(c.App.Reader)
	default:
		input, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	frag, err := t.TransformBytes(input)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, frag.XML)
	return err
}
