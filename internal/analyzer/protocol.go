package analyzer

import "strings"

// Wire types for the analyzer protocol. Positions here are 0-based per
// the wire convention; conversion to the engine's 1-based coordinates
// happens at the workspace boundary.

// Position is a 0-based wire position.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a 0-based wire range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// InitializeParams opens the handshake.
type InitializeParams struct {
	ProcessID             int                `json:"processId"`
	RootURI               string             `json:"rootUri,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
	WorkspaceFolders      []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
}

// WorkspaceFolder names a workspace root.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// ClientCapabilities advertises what this client understands.
type ClientCapabilities struct {
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`
	Workspace    *WorkspaceClientCapabilities    `json:"workspace,omitempty"`
}

// TextDocumentClientCapabilities covers document-scoped features.
type TextDocumentClientCapabilities struct {
	Synchronization *struct {
		DidSave bool `json:"didSave,omitempty"`
	} `json:"synchronization,omitempty"`
	DocumentSymbol *struct {
		HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport,omitempty"`
	} `json:"documentSymbol,omitempty"`
	PublishDiagnostics *struct {
		VersionSupport bool `json:"versionSupport,omitempty"`
	} `json:"publishDiagnostics,omitempty"`
}

// WorkspaceClientCapabilities covers workspace-scoped features.
type WorkspaceClientCapabilities struct {
	WorkspaceFolders bool `json:"workspaceFolders,omitempty"`
	FileOperations   *struct {
		DidCreate bool `json:"didCreate,omitempty"`
	} `json:"fileOperations,omitempty"`
}

// DefaultClientCapabilities returns the capability set sent at handshake.
func DefaultClientCapabilities() ClientCapabilities {
	return ClientCapabilities{
		TextDocument: &TextDocumentClientCapabilities{
			Synchronization: &struct {
				DidSave bool `json:"didSave,omitempty"`
			}{DidSave: true},
			DocumentSymbol: &struct {
				HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport,omitempty"`
			}{HierarchicalDocumentSymbolSupport: true},
			PublishDiagnostics: &struct {
				VersionSupport bool `json:"versionSupport,omitempty"`
			}{VersionSupport: true},
		},
		Workspace: &WorkspaceClientCapabilities{
			WorkspaceFolders: true,
			FileOperations: &struct {
				DidCreate bool `json:"didCreate,omitempty"`
			}{DidCreate: true},
		},
	}
}

// InitializeResult is the handshake reply.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// ServerCapabilities is kept loose: only the features this client
// queries are decoded.
type ServerCapabilities struct {
	DocumentSymbolProvider any `json:"documentSymbolProvider,omitempty"`
	TextDocumentSync       any `json:"textDocumentSync,omitempty"`
}

// ServerInfo identifies the analyzer.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializedParams confirms the handshake. Always empty.
type InitializedParams struct{}

// TextDocumentItem carries full document content for didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentIdentifier names a document.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier names a document at a version.
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int `json:"version"`
}

// DidOpenParams notifies a document open.
type DidOpenParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidCloseParams notifies a document close.
type DidCloseParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DidSaveParams notifies a document save.
type DidSaveParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         string                 `json:"text,omitempty"`
}

// ContentChange is one change in a didChange notification.
type ContentChange struct {
	Range *Range `json:"range,omitempty"`
	Text  string `json:"text"`
}

// DidChangeParams notifies document mutations with the new version.
type DidChangeParams struct {
	TextDocument   VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []ContentChange                 `json:"contentChanges"`
}

// FileCreate names one created file.
type FileCreate struct {
	URI string `json:"uri"`
}

// DidCreateFilesParams notifies file creation.
type DidCreateFilesParams struct {
	Files []FileCreate `json:"files"`
}

// DocumentSymbolParams requests the symbol outline of a document.
type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentSymbol is one node of a hierarchical symbol outline.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// SymbolKind classifies a symbol.
type SymbolKind int

// Symbol kinds per the wire protocol.
const (
	SymbolKindFile SymbolKind = iota + 1
	SymbolKindModule
	SymbolKindNamespace
	SymbolKindPackage
	SymbolKindClass
	SymbolKindMethod
	SymbolKindProperty
	SymbolKindField
	SymbolKindConstructor
	SymbolKindEnum
	SymbolKindInterface
	SymbolKindFunction
	SymbolKindVariable
	SymbolKindConstant
	SymbolKindString
	SymbolKindNumber
	SymbolKindBoolean
	SymbolKindArray
	SymbolKindObject
	SymbolKindKey
	SymbolKindNull
	SymbolKindEnumMember
	SymbolKindStruct
	SymbolKindEvent
	SymbolKindOperator
	SymbolKindTypeParameter
)

var symbolKindNames = map[SymbolKind]string{
	SymbolKindFile: "File", SymbolKindModule: "Module", SymbolKindNamespace: "Namespace",
	SymbolKindPackage: "Package", SymbolKindClass: "Class", SymbolKindMethod: "Method",
	SymbolKindProperty: "Property", SymbolKindField: "Field", SymbolKindConstructor: "Constructor",
	SymbolKindEnum: "Enum", SymbolKindInterface: "Interface", SymbolKindFunction: "Function",
	SymbolKindVariable: "Variable", SymbolKindConstant: "Constant", SymbolKindString: "String",
	SymbolKindNumber: "Number", SymbolKindBoolean: "Boolean", SymbolKindArray: "Array",
	SymbolKindObject: "Object", SymbolKindKey: "Key", SymbolKindNull: "Null",
	SymbolKindEnumMember: "EnumMember", SymbolKindStruct: "Struct", SymbolKindEvent: "Event",
	SymbolKindOperator: "Operator", SymbolKindTypeParameter: "TypeParameter",
}

// String returns the symbol kind name.
func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Diagnostic is one analyzer finding.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity,omitempty"`
	Source   string `json:"source,omitempty"`
	Message  string `json:"message"`
}

// PublishDiagnosticsParams carries pushed diagnostics for one document.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     int          `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// FilePathToURI converts an absolute path to a file URI. Paths already
// carrying a scheme pass through unchanged.
func FilePathToURI(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

// URIToFilePath strips the file scheme from a URI.
func URIToFilePath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
