package domain

import (
	"regexp"
	"runtime"
	"strings"
)

// CommandStyle selects how compile and link steps are issued.
type CommandStyle int

const (
	// StyleSingleCommand drivers both compile and link; the link step is the C or C++ driver
	// given every object (gcc, clang, emcc).
	StyleSingleCommand CommandStyle = iota
	// StyleStaged toolchains link with a separate linker taking its own flags (cl, clang-cl).
	StyleStaged
)

// DepFormat is how a compiler reports the headers a translation unit included.
type DepFormat int

const (
	// DepFormatNone compilers report nothing; units are tracked by their source alone.
	DepFormatNone DepFormat = iota
	// DepFormatMake compilers write a Make rule to the file named by DepOutput (-MMD -MF).
	DepFormatMake
	// DepFormatShowIncludes compilers print one "Note: including file:" line per header (/showIncludes).
	DepFormatShowIncludes
)

// FlagProfile translates abstract build settings into toolchain arguments.
// Templates use "{}" as the value placeholder and are split on spaces.
type FlagProfile struct {
	Style        CommandStyle
	Output       string
	ObjectOutput string
	LinkOutput   string
	ArchiveArgs  string
	CompileOnly  string
	IncludeDir   string
	Define       string
	Optimize     map[Configuration]string
	Debug        string
	Shared       string
	PIC          string
	LibDir       string
	LinkLib      string
	DepOutput    string
	DepFormat    DepFormat

	ObjectExt     string
	StaticExt     string
	SharedExt     string
	ExecutableExt string
	StaticPrefix  string
	SharedPrefix  string
}

// Expand renders template with value substituted for every "{}".
// An empty template expands to nothing.
func Expand(template, value string) []string {
	fields := strings.Fields(template)
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "{}", value)
	}
	return fields
}

// OptimizeArgs returns the optimisation and debug arguments for cfg.
func (p FlagProfile) OptimizeArgs(cfg Configuration) []string {
	args := strings.Fields(p.Optimize[cfg])
	if cfg.DebugInfo() {
		args = append(args, strings.Fields(p.Debug)...)
	}
	return args
}

// ToolchainSpec is the static description of a toolchain kind.
type ToolchainSpec struct {
	Kind ToolchainKind

	// Executable candidates per role, in preference order.
	// An empty Linker list means the C++ driver links.
	CC       []string
	CXX      []string
	Linker   []string
	Archiver []string

	VersionArgs    []string
	VersionPattern *regexp.Regexp
	// Reject excludes banners that match VersionPattern but belong to a different family.
	Reject  *regexp.Regexp
	Minimum Version

	ArchArgs    []string
	ArchPattern *regexp.Regexp
	FixedArch   string
	// TriplePattern, when set, must match the detected target triple.
	TriplePattern *regexp.Regexp

	Profile FlagProfile
}

const versionNumber = `(\d+(?:\.\d+){0,2})`

var gccStyleOptimize = map[Configuration]string{
	ConfigurationDebug:          "-O0",
	ConfigurationRelease:        "-O2",
	ConfigurationMinSize:        "-Os",
	ConfigurationRelWithDebInfo: "-O2",
}

var msvcStyleOptimize = map[Configuration]string{
	ConfigurationDebug:          "/Od",
	ConfigurationRelease:        "/O2",
	ConfigurationMinSize:        "/O1",
	ConfigurationRelWithDebInfo: "/O2",
}

func gccProfile(sharedExt, exeExt string) FlagProfile {
	return FlagProfile{
		Style:         StyleSingleCommand,
		Output:        "-o {}",
		ObjectOutput:  "-o {}",
		ArchiveArgs:   "rcs {}",
		CompileOnly:   "-c",
		IncludeDir:    "-I{}",
		Define:        "-D{}",
		Optimize:      gccStyleOptimize,
		Debug:         "-g",
		Shared:        "-shared",
		PIC:           "-fPIC",
		LibDir:        "-L{}",
		LinkLib:       "-l{}",
		DepOutput:     "-MMD -MF {}",
		DepFormat:     DepFormatMake,
		ObjectExt:     ".o",
		StaticExt:     ".a",
		SharedExt:     sharedExt,
		ExecutableExt: exeExt,
		StaticPrefix:  "lib",
		SharedPrefix:  "lib",
	}
}

func msvcProfile() FlagProfile {
	return FlagProfile{
		Style:         StyleStaged,
		Output:        "/Fe{}",
		ObjectOutput:  "/Fo{}",
		LinkOutput:    "/OUT:{}",
		ArchiveArgs:   "/NOLOGO /OUT:{}",
		CompileOnly:   "/nologo /c",
		IncludeDir:    "/I{}",
		Define:        "/D{}",
		Optimize:      msvcStyleOptimize,
		Debug:         "/Zi",
		Shared:        "/DLL",
		LibDir:        "/LIBPATH:{}",
		LinkLib:       "{}.lib",
		DepOutput:     "/showIncludes",
		DepFormat:     DepFormatShowIncludes,
		ObjectExt:     ".obj",
		StaticExt:     ".lib",
		SharedExt:     ".dll",
		ExecutableExt: ".exe",
	}
}

func hostSharedExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

func hostExeExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

var (
	dumpMachine  = []string{"-dumpmachine"}
	triplePrefix = regexp.MustCompile(`Target:\s*(\S+)`)
)

var toolchainSpecs = map[ToolchainKind]ToolchainSpec{
	ToolchainGNU: {
		Kind:           ToolchainGNU,
		CC:             []string{"gcc", "cc"},
		CXX:            []string{"g++", "c++"},
		Archiver:       []string{"gcc-ar", "ar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`(?m)^\S*(?:gcc|g\+\+|cc|c\+\+)(?:-\d+)?(?:\.exe)? \(.*\) ` + versionNumber),
		Reject:         regexp.MustCompile(`(?i)clang|emscripten|\(ICC\)|intel`),
		Minimum:        MustParseVersion("7.0"),
		ArchArgs:       dumpMachine,
		Profile:        gccProfile(hostSharedExt(), hostExeExt()),
	},
	ToolchainLLVM: {
		Kind:           ToolchainLLVM,
		CC:             []string{"clang"},
		CXX:            []string{"clang++"},
		Archiver:       []string{"llvm-ar", "ar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`(?m)clang version ` + versionNumber),
		Reject:         regexp.MustCompile(`(?i)apple|windows-msvc|mingw|windows-gnu|emscripten|intel`),
		Minimum:        MustParseVersion("5.0"),
		ArchArgs:       dumpMachine,
		Profile:        gccProfile(hostSharedExt(), hostExeExt()),
	},
	ToolchainAppleLLVM: {
		Kind:           ToolchainAppleLLVM,
		CC:             []string{"clang"},
		CXX:            []string{"clang++"},
		Archiver:       []string{"ar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`Apple (?:clang|LLVM) version ` + versionNumber),
		Minimum:        MustParseVersion("16.0"),
		ArchArgs:       dumpMachine,
		Profile:        gccProfile(".dylib", ""),
	},
	ToolchainVisualStudio: {
		Kind:           ToolchainVisualStudio,
		CC:             []string{"cl"},
		CXX:            []string{"cl"},
		Linker:         []string{"link"},
		Archiver:       []string{"lib"},
		VersionPattern: regexp.MustCompile(`Microsoft \(R\) C/C\+\+ Optimizing Compiler Version ` + versionNumber),
		Minimum:        MustParseVersion("19.10"),
		ArchPattern:    regexp.MustCompile(`Version \S+ for (\S+)`),
		Profile:        msvcProfile(),
	},
	ToolchainVisualStudioLLVM: {
		Kind:           ToolchainVisualStudioLLVM,
		CC:             []string{"clang-cl"},
		CXX:            []string{"clang-cl"},
		Linker:         []string{"lld-link", "link"},
		Archiver:       []string{"llvm-lib", "lib"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`clang version ` + versionNumber),
		Minimum:        MustParseVersion("5.0"),
		ArchPattern:    triplePrefix,
		TriplePattern:  regexp.MustCompile(`msvc`),
		Profile:        msvcProfile(),
	},
	ToolchainMingwGNU: {
		Kind:           ToolchainMingwGNU,
		CC:             []string{"x86_64-w64-mingw32-gcc", "gcc"},
		CXX:            []string{"x86_64-w64-mingw32-g++", "g++"},
		Archiver:       []string{"x86_64-w64-mingw32-ar", "ar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`(?m)^\S*(?:gcc|g\+\+)(?:-\d+)?(?:\.exe)? \(.*\) ` + versionNumber),
		Reject:         regexp.MustCompile(`(?i)clang`),
		Minimum:        MustParseVersion("7.0"),
		ArchArgs:       dumpMachine,
		TriplePattern:  regexp.MustCompile(`mingw|windows-gnu`),
		Profile:        gccProfile(".dll", ".exe"),
	},
	ToolchainMingwLLVM: {
		Kind:           ToolchainMingwLLVM,
		CC:             []string{"x86_64-w64-mingw32-clang", "clang"},
		CXX:            []string{"x86_64-w64-mingw32-clang++", "clang++"},
		Archiver:       []string{"llvm-ar", "ar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`clang version ` + versionNumber),
		Reject:         regexp.MustCompile(`(?i)apple`),
		Minimum:        MustParseVersion("5.0"),
		ArchArgs:       dumpMachine,
		TriplePattern:  regexp.MustCompile(`mingw|windows-gnu`),
		Profile:        gccProfile(".dll", ".exe"),
	},
	ToolchainIntelClassic: {
		Kind:           ToolchainIntelClassic,
		CC:             []string{"icc"},
		CXX:            []string{"icpc"},
		Archiver:       []string{"xiar", "ar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`\(ICC\) ` + versionNumber),
		Minimum:        MustParseVersion("19.0"),
		ArchArgs:       dumpMachine,
		Profile:        gccProfile(hostSharedExt(), hostExeExt()),
	},
	ToolchainIntelLLVM: {
		Kind:           ToolchainIntelLLVM,
		CC:             []string{"icx"},
		CXX:            []string{"icpx"},
		Archiver:       []string{"llvm-ar", "ar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`Intel\(R\) oneAPI DPC\+\+/C\+\+ Compiler ` + versionNumber),
		Minimum:        MustParseVersion("2023.1"),
		ArchArgs:       dumpMachine,
		Profile:        gccProfile(hostSharedExt(), hostExeExt()),
	},
	ToolchainEmscripten: {
		Kind:           ToolchainEmscripten,
		CC:             []string{"emcc"},
		CXX:            []string{"em++"},
		Archiver:       []string{"emar"},
		VersionArgs:    []string{"--version"},
		VersionPattern: regexp.MustCompile(`emcc \(Emscripten.*\) ` + versionNumber),
		Minimum:        MustParseVersion("2.0"),
		FixedArch:      "wasm32-unknown-emscripten",
		Profile:        gccProfile(".wasm", ".js"),
	},
}

// detectionOrder lists kinds from the most to the least specific banner,
// so that generic patterns are only tried once the specific ones have failed.
var detectionOrder = []ToolchainKind{
	ToolchainEmscripten,
	ToolchainIntelLLVM,
	ToolchainIntelClassic,
	ToolchainAppleLLVM,
	ToolchainVisualStudio,
	ToolchainVisualStudioLLVM,
	ToolchainMingwLLVM,
	ToolchainMingwGNU,
	ToolchainLLVM,
	ToolchainGNU,
}

// SpecFor returns the static description of kind.
func SpecFor(kind ToolchainKind) (ToolchainSpec, bool) {
	spec, ok := toolchainSpecs[kind]
	return spec, ok
}

// DetectionOrder returns the kinds tried when auto-detecting a toolchain from a version banner.
func DetectionOrder() []ToolchainKind {
	return detectionOrder
}

// MatchVersion extracts the version from a banner printed by a compiler of this kind.
func (s ToolchainSpec) MatchVersion(banner string) (Version, string, bool) {
	if s.Reject != nil && s.Reject.MatchString(banner) {
		return nil, "", false
	}
	m := s.VersionPattern.FindStringSubmatch(banner)
	if m == nil {
		return nil, "", false
	}
	v, ok := ParseVersion(m[1])
	if !ok {
		return nil, "", false
	}
	return v, m[1], true
}

// MatchTriple reports whether a detected target triple is acceptable for this kind.
func (s ToolchainSpec) MatchTriple(triple string) bool {
	return s.TriplePattern == nil || s.TriplePattern.MatchString(triple)
}
