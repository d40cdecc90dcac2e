package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// InitIO handles I/O for the init command.
type InitIO interface {
	StatFile(path string) (bool, error)
	MkdirAll(path string) error
	WriteFileAtomic(path, content string) error
}

// workspaceDirs are created by init when missing.
var workspaceDirs = []string{
	registry.NodesDir,
	validate.GraphSourceDir,
	validate.CompositeDir,
	pkgmodel.PackagesDir,
	pkgmodel.GraphsDir,
}

const configHeader = "# graphcheck workspace configuration\n"

// NewInitCmd creates the init subcommand, which writes a default
// graphcheck.yaml and the workspace directory skeleton.
func NewInitCmd(io InitIO) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Initialize a graphcheck workspace",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace, _ := cmd.Flags().GetString("workspace")
			configPath := filepath.Join(workspace, validate.ConfigFile)

			exists, err := io.StatFile(configPath)
			if err != nil {
				return fmt.Errorf("checking %s: %w", configPath, err)
			}
			if exists && !force {
				return fmt.Errorf("%s already exists in %s; use --force to overwrite", validate.ConfigFile, displayPath(workspace))
			}

			for _, dir := range workspaceDirs {
				if err := io.MkdirAll(filepath.Join(workspace, dir)); err != nil {
					return fmt.Errorf("creating %s: %w", dir, err)
				}
			}

			data, err := validate.DefaultConfig().Encode()
			if err != nil {
				return fmt.Errorf("encoding default config: %w", err)
			}
			if err := io.WriteFileAtomic(configPath, configHeader+string(data)); err != nil {
				return fmt.Errorf("writing %s: %w", validate.ConfigFile, err)
			}

			if exists {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: overwriting existing "+validate.ConfigFile)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized "+displayPath(workspace))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing graphcheck.yaml")

	return cmd
}

// fileInitIO implements InitIO using OS file I/O.
type fileInitIO struct{}

func newDefaultInitIO() *fileInitIO {
	return &fileInitIO{}
}

// StatFile returns true if the file at path exists, false if it does not.
// Returns an error only for unexpected OS errors.
func (f *fileInitIO) StatFile(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// MkdirAll creates path and its parents.
func (f *fileInitIO) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// WriteFileAtomic writes content to path atomically via a temp file rename.
func (f *fileInitIO) WriteFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".init-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write([]byte(content)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
