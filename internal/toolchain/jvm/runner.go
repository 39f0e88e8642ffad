package jvm

import "go.trai.ch/mason/internal/toolchain"

// Runner executes built jars with the language's VM launcher.
type Runner struct {
	command []string
	lang    toolchain.Language
}

func newRunner(env *toolchain.Env, lang toolchain.Language) *Runner {
	return &Runner{command: env.RunnerCommand(lang), lang: lang}
}

// Command is the launcher invocation.
func (r *Runner) Command() []string { return r.command }

// InvokeArgs are the arguments placed before the jar file: java needs -jar,
// scala takes the file directly.
func (r *Runner) InvokeArgs() []string {
	if r.lang.Name == "scala" {
		return nil
	}
	return []string{"-jar"}
}
