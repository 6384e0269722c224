package config

// ProjectFile is the structure shared by anvil.yaml and anvil.hcl.
type ProjectFile struct {
	Version        string          `yaml:"version"         hcl:"version,optional"`
	Name           string          `yaml:"name"            hcl:"name,optional"`
	Root           string          `yaml:"root"            hcl:"root,optional"`
	BuildDir       string          `yaml:"buildDir"        hcl:"build_dir,optional"`
	Configuration  string          `yaml:"configuration"   hcl:"configuration,optional"`
	Jobs           int             `yaml:"jobs"            hcl:"jobs,optional"`
	Toolchain      string          `yaml:"toolchain"       hcl:"toolchain,optional"`
	Fingerprint    string          `yaml:"fingerprint"     hcl:"fingerprint,optional"`
	ToolchainPaths []string        `yaml:"toolchainPaths"  hcl:"toolchain_paths,optional"`
	Dependencies   []DependencyDTO `yaml:"dependencies"    hcl:"dependency,block"`
	Targets        []TargetDTO     `yaml:"targets"         hcl:"target,block"`
}

// DependencyDTO declares an external dependency.
type DependencyDTO struct {
	Name       string `yaml:"name"       hcl:"name,label"`
	Path       string `yaml:"path"       hcl:"path,optional"`
	Repository string `yaml:"repository" hcl:"repository,optional"`
	Ref        string `yaml:"ref"        hcl:"ref,optional"`
}

// TargetDTO declares a target. Exactly one of Project, Script and CMake is set.
type TargetDTO struct {
	Name      string      `yaml:"name"      hcl:"name,label"`
	Kind      string      `yaml:"kind"      hcl:"kind,optional"`
	DependsOn []string    `yaml:"dependsOn" hcl:"depends_on,optional"`
	Output    string      `yaml:"output"    hcl:"output,optional"`
	Project   *ProjectDTO `yaml:"project"   hcl:"project,block"`
	Script    *ScriptDTO  `yaml:"script"    hcl:"script,block"`
	CMake     *CMakeDTO   `yaml:"cmake"     hcl:"cmake,block"`
}

// ProjectDTO is the payload of a native compiled target.
type ProjectDTO struct {
	Type           string   `yaml:"type"           hcl:"type,optional"`
	Toolchain      string   `yaml:"toolchain"      hcl:"toolchain,optional"`
	Sources        []string `yaml:"sources"        hcl:"sources"`
	IncludeDirs    []string `yaml:"includeDirs"    hcl:"include_dirs,optional"`
	Defines        []string `yaml:"defines"        hcl:"defines,optional"`
	LibDirs        []string `yaml:"libDirs"        hcl:"lib_dirs,optional"`
	Links          []string `yaml:"links"          hcl:"links,optional"`
	CompileOptions []string `yaml:"compileOptions" hcl:"compile_options,optional"`
	LinkOptions    []string `yaml:"linkOptions"    hcl:"link_options,optional"`
	Externals      []string `yaml:"externals"      hcl:"externals,optional"`
}

// ScriptDTO is the payload of a script or command target.
type ScriptDTO struct {
	File       string            `yaml:"file"       hcl:"file,optional"`
	Command    []string          `yaml:"command"    hcl:"command,optional"`
	Args       []string          `yaml:"args"       hcl:"args,optional"`
	WorkingDir string            `yaml:"workingDir" hcl:"working_dir,optional"`
	Inputs     []string          `yaml:"inputs"     hcl:"inputs,optional"`
	Env        map[string]string `yaml:"env"        hcl:"env,optional"`
}

// CMakeDTO is the payload of a target delegating to CMake.
type CMakeDTO struct {
	Location  string            `yaml:"location"  hcl:"location"`
	BuildDir  string            `yaml:"buildDir"  hcl:"build_dir,optional"`
	Generator string            `yaml:"generator" hcl:"generator,optional"`
	Defines   map[string]string `yaml:"defines"   hcl:"defines,optional"`
	Targets   []string          `yaml:"targets"   hcl:"targets,optional"`
	Toolchain string            `yaml:"toolchain" hcl:"toolchain,optional"`
	Inputs    []string          `yaml:"inputs"    hcl:"inputs,optional"`
}
