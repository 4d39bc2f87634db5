package process

var languages = map[string]string{
	".py": "python", ".js": "javascript", ".ts": "typescript",
	".tsx": "tsx", ".jsx": "jsx", ".java": "java",
	".c": "c", ".cpp": "cpp", ".cc": "cpp", ".cxx": "cpp",
	".h": "c", ".hpp": "cpp", ".cs": "csharp", ".php": "php",
	".rb": "ruby", ".go": "go", ".rs": "rust", ".swift": "swift",
	".kt": "kotlin", ".scala": "scala", ".sh": "bash", ".bash": "bash",
	".zsh": "zsh", ".fish": "fish", ".ps1": "powershell",
	".bat": "batch", ".cmd": "batch", ".html": "html", ".htm": "html",
	".xml": "xml", ".css": "css", ".scss": "scss", ".sass": "sass",
	".less": "less", ".json": "json", ".yaml": "yaml", ".yml": "yaml",
	".toml": "toml", ".ini": "ini", ".cfg": "ini", ".conf": "conf",
	".md": "markdown", ".markdown": "markdown", ".rst": "rst",
	".txt": "text", ".sql": "sql", ".dockerfile": "dockerfile",
	".gitignore": "gitignore", ".env": "bash", ".r": "r",
	".m": "matlab", ".pl": "perl", ".lua": "lua", ".vim": "vim",
	".asm": "assembly", ".s": "assembly",
}

// Language returns the code fence language for a lower-cased extension, or
// "" when none is known.
func Language(ext string) string {
	return languages[ext]
}
