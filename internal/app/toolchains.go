package app

import (
	"context"
	"path"
	"slices"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/toolchain"
	"go.trai.ch/mason/internal/toolchain/cc"
	"go.trai.ch/mason/internal/toolchain/jvm"
	"golang.org/x/sync/errgroup"
)

// sourceLangs maps source file extensions to languages.
var sourceLangs = map[string]string{
	".c":     "c",
	".cpp":   "c++",
	".cc":    "c++",
	".cxx":   "c++",
	".f90":   "f95",
	".f95":   "f95",
	".java":  "java",
	".scala": "scala",
}

// langOfSource identifies a source file's language by extension.
func langOfSource(src string) (string, error) {
	lang, ok := sourceLangs[path.Ext(src)]
	if !ok {
		return "", domain.Annotate(domain.ErrUnknownLanguage, "source", src)
	}
	return lang, nil
}

// projectLanguages collects every language the project's sources use, in
// sorted order.
func projectLanguages(project *domain.Project) ([]string, error) {
	seen := make(map[string]bool)
	var langs []string
	for _, target := range project.Targets {
		for _, src := range target.Sources {
			lang, err := langOfSource(src)
			if err != nil {
				return nil, domain.Annotate(err, "target", target.Name)
			}
			if !seen[lang] {
				seen[lang] = true
				langs = append(langs, lang)
			}
		}
	}
	slices.Sort(langs)
	return langs, nil
}

// linkLanguage picks the language whose linker drives a target: the most
// derived language among its sources (C++ subsumes C and Fortran). Mixing
// toolchain families in one target is an error.
func linkLanguage(target *domain.Target) (string, error) {
	var langs []string
	for _, src := range target.Sources {
		lang, err := langOfSource(src)
		if err != nil {
			return "", err
		}
		if !slices.Contains(langs, lang) {
			langs = append(langs, lang)
		}
	}

	best := langs[0]
	bestFamily := languageFamily(best)
	for _, lang := range langs[1:] {
		if languageFamily(lang) != bestFamily {
			return "", domain.Annotate(domain.ErrUnknownLanguage,
				"target", target.Name, "languages", langs)
		}
		if lang == "c++" {
			best = lang
		}
	}
	return best, nil
}

func languageFamily(name string) string {
	lang, err := toolchain.LookupLanguage(name)
	if err != nil {
		return ""
	}
	return lang.Family
}

// buildToolchains probes and constructs one toolchain per language,
// concurrently since each involves several subprocess probes.
func buildToolchains(ctx context.Context, env *toolchain.Env, langs []string,
	pkgConfig ports.PkgConfig) (map[string]ports.Toolchain, error) {

	built := make([]ports.Toolchain, len(langs))
	group, ctx := errgroup.WithContext(ctx)

	for i, name := range langs {
		group.Go(func() error {
			lang, err := toolchain.LookupLanguage(name)
			if err != nil {
				return err
			}
			command := env.CompilerCommand(lang)

			switch lang.Family {
			case toolchain.FamilyNative:
				tc, err := cc.NewBuilder(ctx, env, lang, command,
					cc.Probe(ctx, env, command), pkgConfig)
				if err != nil {
					return err
				}
				built[i] = tc
			case toolchain.FamilyJVM:
				tc, err := jvm.NewBuilder(ctx, env, lang, command,
					jvm.Probe(ctx, env, lang))
				if err != nil {
					return err
				}
				built[i] = tc
			default:
				return domain.Annotate(domain.ErrUnknownLanguage, "language", name)
			}

			env.Logger.Info("configured toolchain",
				"language", name, "brand", built[i].Brand())
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	toolchains := make(map[string]ports.Toolchain, len(langs))
	for i, name := range langs {
		toolchains[name] = built[i]
	}
	return toolchains, nil
}
