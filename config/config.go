// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the on-disk value shape for lintflow's gate
// relations and dataflow tuning knobs. It only decodes a YAML document into
// a plain Go struct; wiring that struct's values into a running program is
// left to the caller (config has no dependency on program/scope/regexast).
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// File is the top-level shape of a lintflow configuration document.
type File struct {
	// Workers is the number of dataflow worker goroutines Run launches.
	Workers int `yaml:"workers"`

	// Rules toggles which lint rule families are enabled. The toggles are
	// not per file; the caller (outside this module's perimeter) stages the
	// corresponding Enable* relation facts for each FileID.
	Rules RuleConfig `yaml:"rules"`

	// Regex configures the pattern parser used by rules that embed regex
	// literals (e.g. a disallowed-pattern rule).
	Regex RegexConfig `yaml:"regex"`
}

// RuleConfig toggles the three gate relations scope/build.go wires.
type RuleConfig struct {
	NoTypeofUndef   bool `yaml:"no-typeof-undef"`
	NoUndef         bool `yaml:"no-undef"`
	NoUnusedLabels  bool `yaml:"no-unused-labels"`
}

// RegexConfig mirrors regexast.ParserBuilder's knobs.
type RegexConfig struct {
	NestLimit        uint32 `yaml:"nest-limit"`
	Octal            bool   `yaml:"octal"`
	IgnoreWhitespace bool   `yaml:"ignore-whitespace"`
}

// Default returns the documented defaults: one worker, every rule enabled,
// and regexast's own defaults (nest limit 250, octal disabled).
func Default() File {
	return File{
		Workers: 1,
		Rules: RuleConfig{
			NoTypeofUndef:  true,
			NoUndef:        true,
			NoUnusedLabels: true,
		},
		Regex: RegexConfig{NestLimit: 250},
	}
}

// LoadFile reads and decodes a YAML configuration document from path,
// filling in Default()'s values for anything the document leaves zero.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrapf(err, "reading config file %q", path)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document from raw bytes.
func Parse(data []byte) (File, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return File{}, errors.Wrap(err, "parsing config yaml")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Regex.NestLimit == 0 {
		cfg.Regex.NestLimit = 250
	}
	return cfg, nil
}
