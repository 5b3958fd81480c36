package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/internal/cli/config"
	"github.com/conduit-lang/metaregistry/internal/cli/ui"
)

// initAnswers are the values written to a new metareg.yml.
type initAnswers struct {
	ProjectName string
	CatalogDir  string
	IncludeCore bool
	LogLevel    string
	Example     bool
}

type initFile struct {
	ProjectName string `yaml:"project_name"`
	Catalog     struct {
		Paths  []string `yaml:"paths"`
		Format string   `yaml:"format"`
	} `yaml:"catalog"`
	Registry struct {
		IncludeCore bool `yaml:"include_core"`
	} `yaml:"registry"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

var projectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateProjectName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) == 0 || len(name) > 100 {
		return fmt.Errorf("project name must be 1-100 characters")
	}
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf("project name can only contain letters, numbers, dashes, and underscores")
	}
	return nil
}

func newInitCommand(a *app) *cobra.Command {
	var (
		yes   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Create a metareg.yml in the current directory",
		Long: `Create a metareg.yml config and a catalog directory.

Without --yes you are prompted for each setting. With --yes the defaults are
used and the project name defaults to the current directory name.

Examples:
  metareg init
  metareg init shop --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}

			answers := initAnswers{
				ProjectName: filepath.Base(dir),
				CatalogDir:  "catalogs",
				IncludeCore: true,
				LogLevel:    "warn",
				Example:     true,
			}
			if len(args) == 1 {
				answers.ProjectName = args[0]
			}
			if !yes {
				if err := askInit(&answers, len(args) == 1); err != nil {
					return err
				}
			}

			path, err := writeInit(dir, answers, force)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			ui.WriteSuccess(w, "Created "+path, a.colorless())
			fmt.Fprintln(w, "\nNext: metareg validate")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing metareg.yml")
	return cmd
}

func askInit(answers *initAnswers, named bool) error {
	if !named {
		prompt := &survey.Input{Message: "Project name:", Default: answers.ProjectName}
		if err := survey.AskOne(prompt, &answers.ProjectName, survey.WithValidator(func(v interface{}) error {
			return validateProjectName(fmt.Sprint(v))
		})); err != nil {
			return err
		}
	}

	qs := []*survey.Question{
		{
			Name:     "CatalogDir",
			Prompt:   &survey.Input{Message: "Catalog directory:", Default: answers.CatalogDir},
			Validate: survey.Required,
		},
		{
			Name:   "IncludeCore",
			Prompt: &survey.Confirm{Message: "Register the built-in type families?", Default: answers.IncludeCore},
		},
		{
			Name: "LogLevel",
			Prompt: &survey.Select{
				Message: "Log level:",
				Options: []string{"debug", "info", "warn", "error"},
				Default: answers.LogLevel,
			},
		},
		{
			Name:   "Example",
			Prompt: &survey.Confirm{Message: "Write an example catalog?", Default: answers.Example},
		},
	}
	return survey.Ask(qs, answers)
}

// writeInit writes metareg.yml into dir and creates the catalog directory,
// with an example catalog when asked. It returns the config path.
func writeInit(dir string, answers initAnswers, force bool) (string, error) {
	if err := validateProjectName(answers.ProjectName); err != nil {
		return "", err
	}
	if filepath.IsAbs(answers.CatalogDir) || strings.HasPrefix(filepath.Clean(answers.CatalogDir), "..") {
		return "", fmt.Errorf("catalog directory must be inside the project: %s", answers.CatalogDir)
	}

	path := filepath.Join(dir, config.FileName+".yml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	var f initFile
	f.ProjectName = strings.TrimSpace(answers.ProjectName)
	f.Catalog.Paths = []string{answers.CatalogDir}
	f.Catalog.Format = string(catalog.FormatAuto)
	f.Registry.IncludeCore = answers.IncludeCore
	f.Log.Level = answers.LogLevel

	data, err := yaml.Marshal(&f)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	catalogDir := filepath.Join(dir, answers.CatalogDir)
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if answers.Example && answers.IncludeCore {
		example := filepath.Join(catalogDir, "example.yaml")
		if _, err := os.Stat(example); os.IsNotExist(err) {
			if err := os.WriteFile(example, []byte(exampleCatalog), 0o644); err != nil {
				return "", fmt.Errorf("failed to write example catalog: %w", err)
			}
		}
	}
	return path, nil
}

const exampleCatalog = `provider:
  name: example-types
  description: Example catalog created by metareg init
  priority: 100
  dependencies: [field-types, attribute-types]

types:
  - type: field
    sub_type: email
    implementation: field.EmailField
    description: String field holding an email address
    inherits_from: field.string
    children:
      - {type: attr, sub_type: string, name: domain}
`
