package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP method and route pattern.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for a chi route pattern (e.g. GET /admin/users).
// The resource is the last static path segment in singular form; the action follows from the method:
// GET on a collection is list, GET with a trailing {param} is get, POST create, PUT/PATCH update,
// DELETE delete.
func ParseRoute(method, pattern string) ActionResource {
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	resource := ""
	byID := false
	for _, seg := range segments {
		if seg == "" || seg == "*" {
			continue
		}
		if strings.HasPrefix(seg, "{") {
			byID = true
			continue
		}
		resource = singular(seg)
		byID = false
	}
	if resource == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	return ActionResource{Action: methodToAction(method, byID), Resource: resource}
}

func singular(seg string) string {
	seg = strings.ReplaceAll(strings.ToLower(seg), "-", "_")
	switch {
	case strings.HasSuffix(seg, "ies"):
		return strings.TrimSuffix(seg, "ies") + "y"
	case strings.HasSuffix(seg, "ss"):
		return seg
	case strings.HasSuffix(seg, "s"):
		return strings.TrimSuffix(seg, "s")
	default:
		return seg
	}
}

func methodToAction(method string, byID bool) string {
	switch strings.ToUpper(method) {
	case "GET", "HEAD":
		if byID {
			return "get"
		}
		return "list"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
