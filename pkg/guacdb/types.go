package guacdb

import "strconv"

// Entity kinds stored in guacamole_entity.type.
const (
	KindUser      = "USER"
	KindUserGroup = "USER_GROUP"
)

// PermissionRead is the only permission level this tool administers.
// The column also admits UPDATE/DELETE/ADMINISTER written by other clients;
// Grant upgrades such an edge to READ in place rather than duplicating it.
const PermissionRead = "READ"

// Selector identifies an entity by name or by surrogate ID. Exactly one
// side must be set; IDs must be positive.
type Selector struct {
	Name string
	ID   int64
}

// ByName returns a selector for a name lookup.
func ByName(name string) Selector {
	return Selector{Name: name}
}

// ByID returns a selector for a surrogate-key lookup.
func ByID(id int64) Selector {
	return Selector{ID: id}
}

func (s Selector) validate(kind string) error {
	hasName := s.Name != ""
	hasID := s.ID != 0
	if hasName && hasID {
		return validationf("%s selector: name and id are mutually exclusive", kind)
	}
	if !hasName && !hasID {
		return validationf("%s selector: either name or id is required", kind)
	}
	if hasID && s.ID < 0 {
		return validationf("%s selector: id must be positive, got %d", kind, s.ID)
	}
	return nil
}

// String renders the set side of the selector, for error messages.
func (s Selector) String() string {
	if s.Name != "" {
		return s.Name
	}
	return "#" + strconv.FormatInt(s.ID, 10)
}

// UserGroupDetail describes one user group with its members and the
// connections its members reach through it.
type UserGroupDetail struct {
	ID          int64    `yaml:"id"`
	Users       []string `yaml:"users"`
	Connections []string `yaml:"connections"`
}

// ConnectionInfo describes one connection with its parameters and the
// principals holding READ on it.
type ConnectionInfo struct {
	ID       int64    `yaml:"id"`
	Name     string   `yaml:"name"`
	Protocol string   `yaml:"protocol"`
	Hostname string   `yaml:"hostname"`
	Port     string   `yaml:"port"`
	Parent   string   `yaml:"parent"`
	Groups   []string `yaml:"groups"`
	Users    []string `yaml:"users"`
}

// ConnectionGroupDetail describes one connection group in the tree.
type ConnectionGroupDetail struct {
	ID          int64    `yaml:"id"`
	Parent      string   `yaml:"parent"`
	Connections []string `yaml:"connections"`
}

// ConnectionSpec carries everything needed to create a connection.
type ConnectionSpec struct {
	Name        string
	Protocol    string
	Hostname    string
	Port        string
	Password    string
	ParentGroup string
	Parameters  map[string]string
}

// protocolParameters is the per-protocol allow-list for extra parameters
// passed at connection creation. hostname/port/password are handled as
// first-class fields and are always allowed.
var protocolParameters = map[string]map[string]bool{
	"vnc": {
		"username":      true,
		"color-depth":   true,
		"swap-red-blue": true,
		"cursor":        true,
		"read-only":     true,
		"autoretry":     true,
	},
	"rdp": {
		"username":      true,
		"domain":        true,
		"security":      true,
		"ignore-cert":   true,
		"color-depth":   true,
		"read-only":     true,
		"server-layout": true,
	},
	"ssh": {
		"username":     true,
		"private-key":  true,
		"font-size":    true,
		"color-scheme": true,
		"read-only":    true,
	},
}

// connection parameters that live as columns on the connection row instead
// of the parameter table.
var connectionColumns = map[string]string{
	"protocol": "protocol",
}

// userColumns is the allow-list for ModifyUserParameter. boolCol columns
// accept only "0"/"1".
type userColumn struct {
	column  string
	boolCol bool
}

var userColumns = map[string]userColumn{
	"disabled":            {column: "disabled", boolCol: true},
	"expired":             {column: "expired", boolCol: true},
	"full_name":           {column: "full_name"},
	"email_address":       {column: "email_address"},
	"organization":        {column: "organization"},
	"organizational_role": {column: "organizational_role"},
	"timezone":            {column: "timezone"},
	"access_window_start": {column: "access_window_start"},
	"access_window_end":   {column: "access_window_end"},
	"valid_from":          {column: "valid_from"},
	"valid_until":         {column: "valid_until"},
}

var colorDepths = map[string]bool{
	"8":  true,
	"16": true,
	"24": true,
	"32": true,
}
