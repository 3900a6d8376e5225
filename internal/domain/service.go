// Package domain defines the core service and descriptor types shared by the
// registry, the swagger cache and the HTTP surface.
package domain

import (
	"strconv"
	"strings"
)

// ServiceType is the persisted type_id of a registered service.
type ServiceType int

const (
	TypeSystem ServiceType = iota
	TypeRemoteWeb
	TypeLocalFileStorage
	TypeRemoteFileStorage
	TypeLocalSQLDB
	TypeRemoteSQLDB
	TypeLocalSQLDBSchema
	TypeRemoteSQLDBSchema
	TypeLocalEmail
	TypeRemoteEmail
	TypeNoSQLDB
	TypeSalesforce
	TypeLocalPortal
)

// serviceTypeMeta provides metadata for service types (extend via map, not switch).
var serviceTypeMeta = map[ServiceType]struct {
	Name     string
	FileName string
}{
	TypeSystem:            {"system", ""},
	TypeRemoteWeb:         {"web", "RemoteWebSvc"},
	TypeLocalFileStorage:  {"file", "BaseFileSvc"},
	TypeRemoteFileStorage: {"file", "BaseFileSvc"},
	TypeLocalSQLDB:        {"db", "BaseDbSvc"},
	TypeRemoteSQLDB:       {"db", "BaseDbSvc"},
	TypeLocalSQLDBSchema:  {"schema", "SchemaSvc"},
	TypeRemoteSQLDBSchema: {"schema", "SchemaSvc"},
	TypeLocalEmail:        {"email", "EmailSvc"},
	TypeRemoteEmail:       {"email", "EmailSvc"},
	TypeNoSQLDB:           {"nosql", "NoSqlDbSvc"},
	TypeSalesforce:        {"salesforce", "SalesforceDbSvc"},
	TypeLocalPortal:       {"portal", "Portal"},
}

// Known reports whether the type has descriptor configuration.
func (t ServiceType) Known() bool {
	_, ok := serviceTypeMeta[t]
	return ok
}

// Name returns the lowercase service type name, or "" for unknown types.
func (t ServiceType) Name() string {
	return serviceTypeMeta[t].Name
}

// FileName returns the conventional descriptor base name for a service of
// this type. System services are named after their api name, so "user" maps
// to "UserManager". Unknown types return "".
func (t ServiceType) FileName(apiName string) string {
	m, ok := serviceTypeMeta[t]
	if !ok {
		return ""
	}
	if t == TypeSystem {
		return camelize(apiName) + "Manager"
	}
	return m.FileName
}

func (t ServiceType) String() string {
	if n := t.Name(); n != "" {
		return n
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// camelize turns "api_docs" into "ApiDocs".
func camelize(s string) string {
	var sb strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(strings.ToLower(part[1:]))
	}
	return sb.String()
}

// ServiceDescriptor identifies a registered service.
type ServiceDescriptor struct {
	APIName       string      `json:"api_name"`
	TypeID        ServiceType `json:"type_id"`
	StorageTypeID *int        `json:"storage_type_id,omitempty"`
	Description   string      `json:"description"`
}

// BuiltInServices are always present regardless of registry content.
func BuiltInServices() []ServiceDescriptor {
	return []ServiceDescriptor{
		{APIName: "user", TypeID: TypeSystem, Description: "User Login"},
		{APIName: "system", TypeID: TypeSystem, Description: "System Configuration"},
	}
}

// IsBuiltIn reports whether apiName names a built-in service.
func IsBuiltIn(apiName string) bool {
	for _, s := range BuiltInServices() {
		if s.APIName == apiName {
			return true
		}
	}
	return false
}

// NormalizeAPIName lowercases and trims an api name.
func NormalizeAPIName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
