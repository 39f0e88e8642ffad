// Package pkgconfig resolves native packages through the pkg-config
// metadata tool.
package pkgconfig

import (
	"context"
	"strings"

	"go.trai.ch/mason/internal/adapters/shell"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver implements ports.PkgConfig by querying the pkg-config binary.
type Resolver struct {
	command []string
	runner  ports.Runner
	logger  ports.Logger
}

// New creates a Resolver using the standard pkg-config command.
func New(runner ports.Runner, logger ports.Logger) *Resolver {
	return &Resolver{command: []string{"pkg-config"}, runner: runner, logger: logger}
}

// Resolve queries pkg-config for a package: version first (checked against
// the constraint), then compile and link flags, parsed back into abstract
// options.
func (r *Resolver) Resolve(ctx context.Context, name, format, constraint string,
	kind domain.PackageKind) (*domain.Package, error) {

	if err := domain.CheckVersionConstraint(constraint); err != nil {
		return nil, err
	}

	versionOut, err := r.query(ctx, name, "--modversion")
	if err != nil {
		return nil, err
	}
	if constraint != "" {
		version := domain.DetectVersion(versionOut)
		if !domain.VersionInRange(version, constraint) {
			return nil, domain.Annotate(domain.ErrPackageResolution,
				"package", name, "constraint", constraint,
				"version", strings.TrimSpace(versionOut))
		}
	}

	cflagsOut, err := r.query(ctx, name, "--cflags")
	if err != nil {
		return nil, err
	}
	libsArgs := []string{"--libs"}
	if kind == domain.KindStatic {
		libsArgs = []string{"--libs", "--static"}
	}
	libsOut, err := r.query(ctx, name, libsArgs...)
	if err != nil {
		return nil, err
	}

	compile, err := parseCflags(cflagsOut)
	if err != nil {
		return nil, err
	}
	link, err := parseLibs(libsOut)
	if err != nil {
		return nil, err
	}

	return &domain.Package{
		Name:    name,
		Format:  format,
		Compile: compile,
		Link:    link,
	}, nil
}

func (r *Resolver) query(ctx context.Context, name string, args ...string) (string, error) {
	argv := append(append(append([]string(nil), r.command...), args...), name)
	res, err := r.runner.Run(ctx, argv, ports.RunOptions{})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "pkg-config query failed"), "package", name)
	}
	return res.Stdout, nil
}

// parseCflags maps pkg-config compile flags back to abstract options.
// Anything unrecognized passes through verbatim.
func parseCflags(out string) (domain.OptionList, error) {
	words, err := shell.Split(strings.TrimSpace(out))
	if err != nil {
		return nil, err
	}

	var opts domain.OptionList
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch {
		case strings.HasPrefix(w, "-I") && len(w) > 2:
			opts.Append(domain.IncludeDir{Dir: domain.HeaderDirectory{
				Path: domain.AbsPath(w[2:]), System: true,
			}})
		case w == "-isystem" && i+1 < len(words):
			i++
			opts.Append(domain.IncludeDir{Dir: domain.HeaderDirectory{
				Path: domain.AbsPath(words[i]), System: true,
			}})
		case strings.HasPrefix(w, "-D") && len(w) > 2:
			name, value, _ := strings.Cut(w[2:], "=")
			opts.Append(domain.Define{Name: name, Value: value})
		case w == "-pthread":
			opts.Append(domain.Pthread{})
		default:
			opts.Append(domain.Raw{Value: w})
		}
	}
	return opts, nil
}

// parseLibs maps pkg-config link flags back to abstract options.
func parseLibs(out string) (domain.OptionList, error) {
	words, err := shell.Split(strings.TrimSpace(out))
	if err != nil {
		return nil, err
	}

	var opts domain.OptionList
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch {
		case strings.HasPrefix(w, "-L") && len(w) > 2:
			opts.Append(domain.LibDir{Dir: domain.AbsPath(w[2:])})
		case strings.HasPrefix(w, "-l") && len(w) > 2:
			opts.Append(domain.LinkLib{Library: domain.NamedLib(w[2:])})
		case w == "-pthread":
			opts.Append(domain.Pthread{})
		case w == "-framework" && i+1 < len(words):
			i++
			opts.Append(domain.LinkLib{Library: domain.Framework{Name: words[i]}})
		default:
			opts.Append(domain.LibLiteral{Value: w})
		}
	}
	return opts, nil
}
