// Command sqlc runs `sqlc generate` once per query file listed in .sqlc.base.yaml, so
// every query directory gets its own generated package next to it.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"gopkg.in/yaml.v2"

	"github.com/spf13/viper"
)

const defaultConfigName = "sqlc.yaml"

var (
	baseName = flag.String("base", ".sqlc.base", "base config name without extension")
	dryRun   = flag.Bool("dry-run", false, "print generated configs instead of calling sqlc")
)

func loadBase(name string) (*viper.Viper, []string, error) {
	base := viper.New()
	base.SetConfigName(name)
	base.SetConfigType("yaml")
	base.AddConfigPath(".")
	if err := base.ReadInConfig(); err != nil {
		return nil, nil, errors.Wrap(err, "read base config")
	}

	patterns := base.GetStringSlice("sql.0.source")
	if len(patterns) == 0 {
		return nil, nil, errors.New("has no sql.0.source in config")
	}
	files := make([]string, 0)
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "glob %s", pattern)
		}
		files = append(files, f...)
	}
	sort.Strings(files)
	return base, files, nil
}

// renderConfig builds a single-query sqlc config that writes the package into the
// directory of file. The package is named after that directory.
func renderConfig(base *viper.Viper, file string) ([]byte, error) {
	dir, _ := filepath.Split(file)
	parts := strings.Split(filepath.Clean(dir), string(os.PathSeparator))
	packageName := parts[len(parts)-1]

	engine := base.Sub("sql.0")
	if engine == nil {
		return nil, errors.New("has no sql.0 in config")
	}
	engine.Set("schema", base.GetString("sql.0.schema"))
	engine.Set("queries", file)
	engine.Set("gen.go.package", packageName)
	engine.Set("gen.go.out", dir)
	settings := engine.AllSettings()
	delete(settings, "source")

	result := viper.New()
	result.Set("version", base.GetString("version"))
	result.Set("sql", []interface{}{settings})

	bs, err := yaml.Marshal(result.AllSettings())
	if err != nil {
		return nil, errors.Wrap(err, "marshal config to yaml")
	}
	return bs, nil
}

func writeConfig(content []byte) (string, error) {
	_ = os.Remove(defaultConfigName)
	if err := os.WriteFile(defaultConfigName, content, 0o644); err != nil {
		_ = os.Remove(defaultConfigName)
		return "", errors.Wrap(err, "write sqlc.yaml file")
	}
	return defaultConfigName, nil
}

func callSqlc(config string) error {
	cmd := exec.Command("sqlc", "generate", "--file", config)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("call sqlc: %s", string(output)))
	}
	return nil
}

func run() error {
	base, files, err := loadBase(*baseName)
	if err != nil {
		return err
	}
	defer os.Remove(defaultConfigName)

	for _, file := range files {
		content, err := renderConfig(base, file)
		if err != nil {
			return errors.Wrapf(err, "config for %s", file)
		}
		if *dryRun {
			fmt.Printf("# %s\n%s\n", file, content)
			continue
		}
		configFile, err := writeConfig(content)
		if err != nil {
			return err
		}
		if err = callSqlc(configFile); err != nil {
			return errors.Wrapf(err, "generate %s", file)
		}
		fmt.Printf("%s file complete\n", file)
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("done")
}
