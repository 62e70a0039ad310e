package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// PipelineFile points to the TOML or YAML file describing what to build and
// where to release it
type PipelineFile struct {
	Path string
}

// Flags returns CLI flags for the pipeline file
func (c *PipelineFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Pipeline configuration file (TOML, or YAML by .yaml/.yml extension)",
			Value:       "tagship.toml",
			Destination: &c.Path,
			Sources:     cli.EnvVars("TAGSHIP_CONFIG"),
		},
	}
}

// Load reads the pipeline file. A missing file at the default location yields
// the defaults, so a Go project needs no file at all when the repository is
// given by flag or environment.
func (c *PipelineFile) Load() (*Pipeline, error) {
	cfg := DefaultPipeline()

	f, err := os.Open(c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, goerr.Wrap(err, "failed to open pipeline config", goerr.V("path", c.Path))
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(err, "failed to decode pipeline config",
				goerr.T(model.ErrTagInvalidConfiguration),
				goerr.V("path", c.Path),
			)
		}

	default:
		decoder := toml.NewDecoder(f).DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, goerr.Wrap(err, "unknown keys in pipeline config",
					goerr.T(model.ErrTagInvalidConfiguration),
					goerr.V("path", c.Path),
					goerr.V("detail", strict.String()),
				)
			}
			return nil, goerr.Wrap(err, "failed to decode pipeline config",
				goerr.T(model.ErrTagInvalidConfiguration),
				goerr.V("path", c.Path),
			)
		}
	}

	return cfg, nil
}

// Pipeline is the content of the pipeline file
type Pipeline struct {
	Product    string `toml:"product" yaml:"product"`
	Platform   string `toml:"platform" yaml:"platform"`
	DistDir    string `toml:"dist_dir" yaml:"dist_dir"`
	TagPattern string `toml:"tag_pattern" yaml:"tag_pattern"`

	Build   BuildSection   `toml:"build" yaml:"build"`
	Release ReleaseSection `toml:"release" yaml:"release"`
	Formula FormulaSection `toml:"formula" yaml:"formula"`
}

// BuildSection configures the build phases. A phase is an argv; an empty one
// falls back to the Go toolchain default.
type BuildSection struct {
	OutputDir string            `toml:"output_dir" yaml:"output_dir"`
	Files     []string          `toml:"files" yaml:"files"`
	Compile   []string          `toml:"compile" yaml:"compile"`
	Test      []string          `toml:"test" yaml:"test"`
	Lint      []string          `toml:"lint" yaml:"lint"`
	Env       map[string]string `toml:"env" yaml:"env"`
}

// ReleaseSection configures the GitHub release
type ReleaseSection struct {
	Owner         string `toml:"owner" yaml:"owner"`
	Repo          string `toml:"repo" yaml:"repo"`
	Prerelease    bool   `toml:"prerelease" yaml:"prerelease"`
	ReuseExisting bool   `toml:"reuse_existing" yaml:"reuse_existing"`
	ContentType   string `toml:"content_type" yaml:"content_type"`
}

// FormulaSection configures the Homebrew formula bump
type FormulaSection struct {
	Tap                 string `toml:"tap" yaml:"tap"`
	Name                string `toml:"name" yaml:"name"`
	DownloadURLTemplate string `toml:"download_url_template" yaml:"download_url_template"`
	NoFork              bool   `toml:"no_fork" yaml:"no_fork"`
	Skip                bool   `toml:"skip" yaml:"skip"`
}

// DefaultPipeline returns the configuration used for keys absent from the file
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		Platform: runtime.GOOS + "_" + runtime.GOARCH,
		DistDir:  "dist",
		Build: BuildSection{
			OutputDir: "build",
			Test:      []string{"go", "test", "./..."},
			Lint:      []string{"go", "vet", "./..."},
		},
		Release: ReleaseSection{
			Prerelease:    true,
			ReuseExisting: true,
			ContentType:   model.ArchiveContentType,
		},
	}
}

// Complete fills the values derived from the repository: owner and repo
// from the GitHub settings when the file has none, the product from the
// repository name, and the compile command and archived files from the
// product.
func (c *Pipeline) Complete(owner, repo string) {
	if c.Release.Owner == "" {
		c.Release.Owner = owner
	}
	if c.Release.Repo == "" {
		c.Release.Repo = repo
	}
	if c.Product == "" {
		c.Product = c.Release.Repo
	}
	if c.Formula.Name == "" {
		c.Formula.Name = c.Product
	}
	if len(c.Build.Files) == 0 && c.Product != "" {
		c.Build.Files = []string{c.Product}
	}
	if len(c.Build.Compile) == 0 && c.Product != "" {
		c.Build.Compile = []string{"go", "build", "-o", filepath.Join(c.Build.OutputDir, c.Product), "."}
	}
}

// Validate checks that every value a run needs is present
func (c *Pipeline) Validate() error {
	invalid := func(msg string, opts ...goerr.Option) error {
		return goerr.New(msg, append(opts, goerr.T(model.ErrTagInvalidConfiguration))...)
	}

	if c.Product == "" {
		return invalid("product is required")
	}
	if c.Platform == "" {
		return invalid("platform is required")
	}
	if c.Release.Owner == "" || c.Release.Repo == "" {
		return invalid("release owner and repo are required",
			goerr.V("owner", c.Release.Owner),
			goerr.V("repo", c.Release.Repo),
		)
	}
	if len(c.Build.Files) == 0 {
		return invalid("build files are required")
	}
	for _, phase := range c.PhaseCommands() {
		if phase.Command.Name == "" {
			return invalid("build phase command is required", goerr.V("phase", phase.Phase))
		}
	}
	if _, err := c.TagRegexp(); err != nil {
		return err
	}
	if !c.Formula.Skip && c.Formula.Tap == "" {
		return invalid("formula tap is required unless formula.skip is set")
	}

	return nil
}

// ArchiveName returns the release asset name, constant across releases
func (c *Pipeline) ArchiveName() string {
	return c.Product + "-" + c.Platform + ".tar.gz"
}

// PhaseCommands returns the build phases in execution order
func (c *Pipeline) PhaseCommands() []model.PhaseCommand {
	argv := map[model.Phase][]string{
		model.PhaseCompile: c.Build.Compile,
		model.PhaseTest:    c.Build.Test,
		model.PhaseLint:    c.Build.Lint,
	}

	phases := make([]model.PhaseCommand, 0, len(model.Phases))
	for _, phase := range model.Phases {
		cmd := model.Command{Env: c.Build.Env}
		if args := argv[phase]; len(args) > 0 {
			cmd.Name = args[0]
			cmd.Args = args[1:]
		}
		phases = append(phases, model.PhaseCommand{Phase: phase, Command: cmd})
	}
	return phases
}

// BuildOutput returns the files expected once the build phases passed
func (c *Pipeline) BuildOutput() model.BuildOutput {
	return model.BuildOutput{
		Dir:   c.Build.OutputDir,
		Files: c.Build.Files,
	}
}

// TagRegexp compiles tag_pattern. nil means any tag is accepted.
func (c *Pipeline) TagRegexp() (*regexp.Regexp, error) {
	if c.TagPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.TagPattern)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid tag pattern",
			goerr.T(model.ErrTagInvalidConfiguration),
			goerr.V("pattern", c.TagPattern),
		)
	}
	return re, nil
}
