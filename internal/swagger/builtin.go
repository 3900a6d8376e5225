package swagger

import "github.com/dreamfactory/dspdocs/internal/domain"

// generator produces a descriptor fragment for a service type. Fragments are
// merged over the base fields by the loader.
type generator func() map[string]any

// builtinGenerators are keyed by ServiceType.FileName.
var builtinGenerators = map[string]generator{
	"SystemManager": systemDescriptor,
	"UserManager":   userDescriptor,
	"BaseDbSvc":     dbDescriptor,
	"BaseFileSvc":   fileDescriptor,
	"EmailSvc":      emailDescriptor,
}

func op(method, nickname, summary string, events ...string) map[string]any {
	o := map[string]any{
		"method":           method,
		"nickname":         nickname,
		"summary":          summary,
		"responseMessages": GetCommonResponses(),
	}
	switch len(events) {
	case 0:
	case 1:
		o["event_name"] = events[0]
	default:
		o["event_name"] = events
	}
	return o
}

func withParams(o map[string]any, params ...domain.ParameterDescriptor) map[string]any {
	o["parameters"] = params
	return o
}

func pathParam(name, description string) domain.ParameterDescriptor {
	return domain.ParameterDescriptor{Name: name, Description: description, ParamType: "path", Type: "string", Required: true}
}

func queryParam(name, description, typ string) domain.ParameterDescriptor {
	return domain.ParameterDescriptor{Name: name, Description: description, ParamType: "query", Type: typ}
}

func api(path, description string, ops ...map[string]any) map[string]any {
	return map[string]any{"path": path, "description": description, "operations": ops}
}

func crud(path, resource, plural string, idParam *domain.ParameterDescriptor) []map[string]any {
	if idParam == nil {
		return []map[string]any{
			api(path, "Operations for "+plural+" administration.",
				op("GET", "get"+title(plural), "Retrieve multiple "+plural+".", "{api_name}."+plural+".list"),
				op("POST", "create"+title(plural), "Create one or more "+plural+".", "{api_name}."+plural+".create"),
				op("PATCH", "update"+title(plural), "Update one or more "+plural+".", "{api_name}."+plural+".update"),
				op("DELETE", "delete"+title(plural), "Delete one or more "+plural+".", "{api_name}."+plural+".delete"),
			),
		}
	}
	p := *idParam
	return []map[string]any{
		api(path, "Operations for individual "+resource+" administration.",
			withParams(op("GET", "get"+title(resource), "Retrieve one "+resource+".", "{api_name}."+resource+".read"), p),
			withParams(op("PATCH", "update"+title(resource), "Update one "+resource+".", "{api_name}."+resource+".update"), p),
			withParams(op("DELETE", "delete"+title(resource), "Delete one "+resource+".", "{api_name}."+resource+".delete"), p),
		),
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func systemDescriptor() map[string]any {
	apis := []map[string]any{
		api("/{api_name}", "Operations available for system management.",
			op("GET", "getResources", "getResources() - List resources available for system management.", "{api_name}.list"),
		),
	}
	for _, r := range []struct{ path, one, many string }{
		{"app", "app", "apps"},
		{"app_group", "app_group", "app_groups"},
		{"role", "role", "roles"},
		{"service", "service", "services"},
		{"user", "user", "users"},
		{"email_template", "email_template", "email_templates"},
		{"provider_user", "provider_user", "provider_users"},
	} {
		id := pathParam("id", "Identifier of the record to retrieve.")
		apis = append(apis, crud("/{api_name}/"+r.path, r.one, r.many, nil)...)
		apis = append(apis, crud("/{api_name}/"+r.path+"/{id}", r.one, r.many, &id)...)
	}

	scriptID := pathParam("script_id", "The id of the script.")
	apis = append(apis,
		api("/{api_name}/config", "Operations for system configuration options.",
			op("GET", "getConfig", "getConfig() - Retrieve system configuration options.", "{api_name}.config.read"),
			op("POST", "setConfig", "setConfig() - Update one or more system configuration properties.", "{api_name}.config.update"),
		),
		api("/{api_name}/script", "Operations for scripts.",
			op("GET", "getScripts", "getScripts() - List all scripts.", "{api_name}.scripts.list"),
		),
		api("/{api_name}/script/{script_id}", "Operations for a single script.",
			withParams(op("GET", "getScript", "getScript() - Get the script with ID provided.", "{api_name}.script.read"), scriptID),
			withParams(op("POST", "runScript", "runScript() - Runs the specified script.", "{api_name}.script.run"), scriptID),
			withParams(op("PUT", "writeScript", "writeScript() - Writes the specified script.", "{api_name}.script.write"), scriptID),
			withParams(op("DELETE", "deleteScript", "deleteScript() - Delete the script with ID provided.", "{api_name}.script.delete"), scriptID),
		),
		api("/{api_name}/event", "Operations for registered events.",
			withParams(op("GET", "getEvents", "getEvents() - Retrieve events and registered listeners.", "{api_name}.events.list"),
				queryParam("all_events", "Return all events known by the platform.", "boolean"),
				queryParam("as_cached", "Return the raw cached event map.", "boolean"),
			),
		),
	)

	return map[string]any{
		"resourcePath": "/{api_name}",
		"produces":     []string{"application/json"},
		"consumes":     []string{"application/json"},
		"apis":         apis,
		"models": map[string]any{
			"Resources": map[string]any{
				"id": "Resources",
				"properties": map[string]any{
					"resource": map[string]any{"type": "Array", "description": "List of system resources.", "items": map[string]any{"$ref": "Resource"}},
				},
			},
			"Resource": map[string]any{
				"id": "Resource",
				"properties": map[string]any{
					"name": map[string]any{"type": "string", "description": "Name of the resource."},
				},
			},
		},
	}
}

func userDescriptor() map[string]any {
	return map[string]any{
		"resourcePath": "/{api_name}",
		"produces":     []string{"application/json"},
		"consumes":     []string{"application/json"},
		"apis": []map[string]any{
			api("/{api_name}", "Operations available for user session management.",
				op("GET", "getResources", "getResources() - List resources available for user session management.", "{api_name}.list"),
			),
			api("/{api_name}/session", "Operations on a user's session.",
				op("GET", "getSession", "getSession() - Retrieve the current user session information.", "{api_name}.session.read"),
				op("POST", "login", "login() - Login and create a new user session.", "{api_name}.session.create", "{api_name}.login"),
				op("DELETE", "logout", "logout() - Logout and destroy the current user session.", "{api_name}.session.delete", "{api_name}.logout"),
			),
			api("/{api_name}/profile", "Operations on a user's profile.",
				op("GET", "getProfile", "getProfile() - Retrieve the current user's profile information.", "{api_name}.profile.read"),
				op("POST", "changeProfile", "changeProfile() - Update the current user's profile information.", "{api_name}.profile.update"),
			),
			api("/{api_name}/password", "Operations on a user's password.",
				op("POST", "changePassword", "changePassword() - Change or reset the current user's password.", "{api_name}.password.update"),
			),
			api("/{api_name}/register", "Operations on user registration.",
				op("POST", "register", "register() - Register a new user in the system.", "{api_name}.register"),
			),
		},
		"models": map[string]any{},
	}
}

func dbDescriptor() map[string]any {
	table := pathParam("table_name", "Name of the table to perform operations on.")
	id := pathParam("id", "Identifier of the record to retrieve.")
	return map[string]any{
		"resourcePath": "/{api_name}",
		"produces":     []string{"application/json"},
		"consumes":     []string{"application/json"},
		"apis": []map[string]any{
			api("/{api_name}", "Operations available for database tables.",
				op("GET", "getResources", "getResources() - List all resources.", "{api_name}.list"),
			),
			api("/{api_name}/{table_name}", "Operations for table records administration.",
				withParams(op("GET", "getRecords", "getRecords() - Retrieve one or more records.", "{api_name}.{table_name}.select", "{api_name}.table_selected"),
					table,
					queryParam("filter", "SQL-like filter to limit the records to retrieve.", "string"),
					queryParam("limit", "Set to limit the filter results.", "integer"),
				),
				withParams(op("POST", "createRecords", "createRecords() - Create one or more records.", "{api_name}.{table_name}.insert", "{api_name}.table_inserted"), table),
				withParams(op("PATCH", "updateRecords", "updateRecords() - Update one or more records.", "{api_name}.{table_name}.update", "{api_name}.table_updated"), table),
				withParams(op("DELETE", "deleteRecords", "deleteRecords() - Delete one or more records.", "{api_name}.{table_name}.delete", "{api_name}.table_deleted"), table),
			),
			api("/{api_name}/{table_name}/{id}", "Operations for single record administration.",
				withParams(op("GET", "getRecord", "getRecord() - Retrieve one record by identifier.", "{api_name}.{table_name}.select"), table, id),
				withParams(op("PATCH", "updateRecord", "updateRecord() - Update one record by identifier.", "{api_name}.{table_name}.update"), table, id),
				withParams(op("DELETE", "deleteRecord", "deleteRecord() - Delete one record by identifier.", "{api_name}.{table_name}.delete"), table, id),
			),
		},
		"models": map[string]any{},
	}
}

func fileDescriptor() map[string]any {
	container := pathParam("container", "Name of the container where the file exists.")
	folder := pathParam("folder_path", "The path of the folder relative to the container.")
	file := pathParam("file_path", "Path and name of the file to operate on.")
	return map[string]any{
		"resourcePath": "/{api_name}",
		"produces":     []string{"application/json"},
		"consumes":     []string{"application/json"},
		"apis": []map[string]any{
			api("/{api_name}", "Operations available for File Storage Service.",
				op("GET", "getResources", "getResources() - List all containers.", "{api_name}.list"),
				op("POST", "createContainers", "createContainers() - Create one or more containers.", "{api_name}.container.create"),
			),
			api("/{api_name}/{container}/", "Operations on containers.",
				withParams(op("GET", "getContainer", "getContainer() - List the container's content.", "{api_name}.container.read"), container),
				withParams(op("POST", "createFolder", "createFolder() - Create a folder or file in the container.", "{api_name}.container.create"), container),
				withParams(op("DELETE", "deleteContainer", "deleteContainer() - Delete one container and/or its contents.", "{api_name}.container.delete"), container),
			),
			api("/{api_name}/{container}/{folder_path}/", "Operations on folders.",
				withParams(op("GET", "getFolder", "getFolder() - List the folder's content.", "{api_name}.folder.read"), container, folder),
				withParams(op("DELETE", "deleteFolder", "deleteFolder() - Delete one folder and/or its contents.", "{api_name}.folder.delete"), container, folder),
			),
			api("/{api_name}/{container}/{file_path}", "Operations on individual files.",
				withParams(op("GET", "getFile", "getFile() - Download the file contents.", "{api_name}.file.read"), container, file),
				withParams(op("PUT", "replaceFile", "replaceFile() - Update content of the file.", "{api_name}.file.update"), container, file),
				withParams(op("DELETE", "deleteFile", "deleteFile() - Delete one file.", "{api_name}.file.delete"), container, file),
			),
		},
		"models": map[string]any{},
	}
}

func emailDescriptor() map[string]any {
	return map[string]any{
		"resourcePath": "/{api_name}",
		"produces":     []string{"application/json"},
		"consumes":     []string{"application/json"},
		"apis": []map[string]any{
			api("/{api_name}", "Operations on a email service.",
				withParams(op("POST", "sendEmail", "sendEmail() - Send an email created from posted data and/or a template.", "email.sent"),
					queryParam("template", "Optional template name to base email on.", "string"),
					queryParam("template_id", "Optional template id to base email on.", "integer"),
				),
			),
		},
		"models": map[string]any{
			"EmailResponse": map[string]any{
				"id": "EmailResponse",
				"properties": map[string]any{
					"count": map[string]any{"type": "integer", "format": "int32", "description": "Number of emails successfully sent."},
				},
			},
		},
	}
}
