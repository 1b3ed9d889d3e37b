package metadata

// Document is the structured content of one metadata document, as produced
// by a DocumentCodec. The core never parses document bytes itself.
type Document struct {
	// BashTags lists the Bash Tags the document declares as known.
	BashTags []string
	// Globals holds messages that apply to the whole load order.
	Globals []Message
	// Plugins holds the per-plugin metadata entries in document order.
	Plugins []PluginMetadata
	// Groups holds the group definitions in document order.
	Groups []Group
}

// DocumentCodec is the metadata document oracle: it translates between
// document bytes and the structured Document. Implementations own the
// serialisation format; the core only validates the structured result.
type DocumentCodec interface {
	// Decode parses document bytes.
	Decode(data []byte) (Document, error)

	// DecodeWithPrelude parses document bytes after substituting the given
	// prelude into the document's prelude section.
	DecodeWithPrelude(data, prelude []byte) (Document, error)

	// Encode serialises a document. The output must be stable: encoding
	// the same document twice yields identical bytes.
	Encode(doc Document) ([]byte, error)
}
