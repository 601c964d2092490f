package gitlog

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// projectName resolves the project label for a repo directory name.
// Priority: explicit config override > package name declared in the repo's
// manifest (pyproject.toml, Cargo.toml) > the directory name itself.
func (s *Scanner) projectName(repoName string) string {
	if override, ok := s.ProjectNames[repoName]; ok {
		return override
	}
	for _, repo := range s.Repos {
		if filepath.Base(repo) != repoName {
			continue
		}
		if name := manifestName(repo); name != "" {
			return name
		}
	}
	return repoName
}

// manifestName sniffs a package name from the repo's build manifest.
// Any parse failure just falls through; naming is cosmetic.
func manifestName(repoDir string) string {
	if data, err := os.ReadFile(filepath.Join(repoDir, "pyproject.toml")); err == nil {
		var pyproject struct {
			Project struct {
				Name string `toml:"name"`
			} `toml:"project"`
			Tool struct {
				Poetry struct {
					Name string `toml:"name"`
				} `toml:"poetry"`
			} `toml:"tool"`
		}
		if err := toml.Unmarshal(data, &pyproject); err == nil {
			if pyproject.Project.Name != "" {
				return pyproject.Project.Name
			}
			if pyproject.Tool.Poetry.Name != "" {
				return pyproject.Tool.Poetry.Name
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(repoDir, "Cargo.toml")); err == nil {
		var cargo struct {
			Package struct {
				Name string `toml:"name"`
			} `toml:"package"`
		}
		if err := toml.Unmarshal(data, &cargo); err == nil && cargo.Package.Name != "" {
			return cargo.Package.Name
		}
	}

	return ""
}
