package templates

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DefinitionFile is the YAML document accepted by LoadDefinitions.
//
//	templates:
//	  - slug: page
//	    name: Page
//	    fields:
//	      - key: headline
//	        type: text
//	        translated: true
type DefinitionFile struct {
	Templates []RegisterTemplateRequest `yaml:"templates"`
}

func decodeDefinitions(r io.Reader) (DefinitionFile, error) {
	var file DefinitionFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return DefinitionFile{}, nil
		}
		return DefinitionFile{}, fmt.Errorf("templates: decode definitions: %w", err)
	}
	return file, nil
}
