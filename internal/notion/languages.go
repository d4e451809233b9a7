package notion

import (
	"strings"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

// languages is the set of code block languages the API accepts.
var languages = map[string]bool{
	"abap": true, "agda": true, "arduino": true, "ascii art": true, "assembly": true,
	"bash": true, "basic": true, "bnf": true, "c": true, "c#": true, "c++": true,
	"clojure": true, "coffeescript": true, "coq": true, "css": true, "dart": true,
	"dhall": true, "diff": true, "docker": true, "ebnf": true, "elixir": true, "elm": true,
	"erlang": true, "f#": true, "flow": true, "fortran": true, "gherkin": true, "glsl": true,
	"go": true, "graphql": true, "groovy": true, "haskell": true, "hcl": true, "html": true,
	"idris": true, "java": true, "javascript": true, "json": true, "julia": true,
	"kotlin": true, "latex": true, "less": true, "lisp": true, "livescript": true,
	"llvm ir": true, "lua": true, "makefile": true, "markdown": true, "markup": true,
	"matlab": true, "mathematica": true, "mermaid": true, "nix": true,
	"notion formula": true, "objective-c": true, "ocaml": true, "pascal": true, "perl": true,
	"php": true, "plain text": true, "powershell": true, "prolog": true, "protobuf": true,
	"purescript": true, "python": true, "r": true, "racket": true, "reason": true,
	"ruby": true, "rust": true, "sass": true, "scala": true, "scheme": true, "scss": true,
	"shell": true, "smalltalk": true, "solidity": true, "sql": true, "swift": true,
	"toml": true, "typescript": true, "vb.net": true, "verilog": true, "vhdl": true,
	"visual basic": true, "webassembly": true, "xml": true, "yaml": true,
	"java/c/c++/c#": true,
}

// languageAliases maps common fence info strings onto API language names.
var languageAliases = map[string]string{
	"py":         "python",
	"python3":    "python",
	"js":         "javascript",
	"jsx":        "javascript",
	"node":       "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"sh":         "shell",
	"zsh":        "shell",
	"console":    "shell",
	"yml":        "yaml",
	"golang":     "go",
	"rb":         "ruby",
	"rs":         "rust",
	"cs":         "c#",
	"csharp":     "c#",
	"cpp":        "c++",
	"cxx":        "c++",
	"h":          "c",
	"hpp":        "c++",
	"kt":         "kotlin",
	"md":         "markdown",
	"dockerfile": "docker",
	"tf":         "hcl",
	"terraform":  "hcl",
	"objc":       "objective-c",
	"ps1":        "powershell",
	"pwsh":       "powershell",
	"text":       "plain text",
	"txt":        "plain text",
	"plaintext":  "plain text",
	"proto":      "protobuf",
	"tex":        "latex",
	"make":       "makefile",
	"fsharp":     "f#",
	"vb":         "visual basic",
	"wasm":       "webassembly",
	"hs":         "haskell",
	"ex":         "elixir",
	"exs":        "elixir",
	"erl":        "erlang",
	"clj":        "clojure",
	"scm":        "scheme",
	"jl":         "julia",
	"ml":         "ocaml",
	"sol":        "solidity",
	"sv":         "verilog",
	"htm":        "html",
	"svg":        "xml",
	"patch":      "diff",
	"gql":        "graphql",
	"asm":        "assembly",
}

// NormalizeLanguage maps a fence language onto a name the API accepts.
// Only the first word of the info string is considered; unknown languages
// become plain text.
func NormalizeLanguage(lang string) string {
	fields := strings.Fields(strings.ToLower(lang))
	if len(fields) == 0 {
		return doctree.PlainTextLanguage
	}
	name := fields[0]
	if languages[name] {
		return name
	}
	if alias, ok := languageAliases[name]; ok {
		return alias
	}
	// "plain text" itself spans two words.
	if joined := strings.Join(fields, " "); languages[joined] {
		return joined
	}
	return doctree.PlainTextLanguage
}
