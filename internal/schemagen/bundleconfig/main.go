package main

import (
	"flag"
	"log"
	"os"

	"github.com/wardenhq/warden/api/v1beta1/bundleconfigs"
	"github.com/wardenhq/warden/pkg/yaml"
)

var outFile = flag.String("o", "schema.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	gen := yaml.NewSchemaGenerator(bundleconfigs.New(),
		[2]string{"github.com/wardenhq/warden/api/v1beta1/bundleconfigs", "./"},
		[2]string{"github.com/wardenhq/warden/pkg/overlay", "../../../pkg/overlay"},
	)

	jsData, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	// Write schema.json file.
	err = os.WriteFile(*outFile, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
