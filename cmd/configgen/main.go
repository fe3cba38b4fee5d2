package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/danmuck/vidmod/internal/config"
	"github.com/danmuck/vidmod/internal/nodes"
)

func main() {
	kind := flag.String("kind", "raw", "pipeline template: "+strings.Join(config.Kinds(), "|"))
	output := flag.String("output", "", "output path for the template (.toml, .yaml, .yml)")
	validate := flag.Bool("validate", false, "validate an existing pipeline definition")
	input := flag.String("input", "", "pipeline path for validation")
	build := flag.Bool("build", false, "with -validate, also construct every node")
	force := flag.Bool("force", false, "overwrite existing file")
	flag.Parse()

	if *validate {
		if err := validatePipeline(*input, *build); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated pipeline at %s", *input)
		return
	}

	target := *output
	if target == "" {
		target = *kind + ".pipeline.toml"
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s pipeline template to %s", *kind, target)
}

func validatePipeline(path string, build bool) error {
	if path == "" {
		return fmt.Errorf("-validate needs -input")
	}
	def, err := config.LoadPipeline(path)
	if err != nil {
		return err
	}
	if !build {
		return nil
	}
	reg, err := nodes.Builtin()
	if err != nil {
		return err
	}
	insts, err := def.Instances(reg)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		if c, ok := inst.Node().(interface{ Close() error }); ok {
			c.Close()
		}
	}
	return nil
}
