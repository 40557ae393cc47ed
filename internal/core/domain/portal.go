package domain

import "fmt"

// WidgetIDPrefix prefixes the deterministic widget identifier shared by
// every portal a given connection creates. The caller uses it to replace a
// prior portal instead of duplicating it.
const WidgetIDPrefix = "mantis-injected-widget-"

// Portal describes an embedded visualization: the iframe element a host
// page mounts, plus the relay session that addresses messages back to the
// owning connection.
type Portal struct {
	// WidgetID is the deterministic per-connection element identifier.
	WidgetID string

	// SpaceID is the space the portal displays.
	SpaceID string

	// SessionID is the relay session created for this portal (UUIDv4).
	SessionID string

	// EmbedURL is the frontend URL loaded inside the iframe. The session
	// id travels as the ext_id query parameter.
	EmbedURL string

	// Anchor is the connection-chosen host-page selector the portal is
	// inserted at.
	Anchor string
}

// WidgetID derives the deterministic widget identifier for a connection
// name. Two portals from the same connection always share it.
func WidgetID(connectionName string) string {
	return WidgetIDPrefix + connectionName
}

// Markup renders the iframe element for the portal.
func (p *Portal) Markup() string {
	return fmt.Sprintf(`<iframe id=%q src=%q style="border:none;width:100%%;height:80vh"></iframe>`, p.WidgetID, p.EmbedURL)
}

// ActionKind classifies a page action produced by a message handler.
type ActionKind string

const (
	// ActionFlash scrolls to a block and briefly highlights it.
	ActionFlash ActionKind = "flash"

	// ActionAnnotate applies a sustained colour annotation to a block.
	ActionAnnotate ActionKind = "annotate"
)

// PageAction is an instruction for the host page, produced when a
// connection handles a message from its portal (select, add_point).
type PageAction struct {
	// Kind is the effect to apply.
	Kind ActionKind

	// Selector locates the ordered block list in the host page.
	Selector string

	// Index selects the block within Selector matches. It is the same
	// identifying index the connection attached at extraction time.
	Index int

	// Color is the annotation colour for ActionAnnotate, as #rrggbb.
	Color string
}
