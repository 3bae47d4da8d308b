package view

// View types.
const (
	TypeSystem = "system"
	TypeCustom = "custom"
)

// View is the unified representation of a system workflow list or a custom
// view.
type View struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Icon           string   `json:"icon"`
	Type           string   `json:"type"`
	VisibleColumns []string `json:"visibleColumns"`
	RowIDs         []string `json:"rowIds"`
	RowCount       int      `json:"rowCount"`
}

// Default icons, named after the icon set the grid UI renders.
var systemIcons = map[string]string{
	"inbox":     "Inbox",
	"shortlist": "Star",
	"discarded": "Trash2",
}

const (
	defaultSystemIcon = "LayoutGrid"
	defaultCustomIcon = "Eye"
)

func systemIcon(listID string) string {
	if icon, ok := systemIcons[listID]; ok {
		return icon
	}
	return defaultSystemIcon
}
