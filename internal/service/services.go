package service

import "github.com/dreamfactory/dspdocs/internal/domain"

// Base is the context for any non-system service.
type Base struct {
	desc         domain.ServiceDescriptor
	serviceName  string
	resource     string
	resourcePath string
}

// NewBase builds a base service whose service name is its type name.
func NewBase(desc domain.ServiceDescriptor) Service {
	return &Base{desc: desc, serviceName: desc.TypeID.Name()}
}

func (b *Base) APIName() string                      { return b.desc.APIName }
func (b *Base) Resource() string                     { return b.resource }
func (b *Base) ResourcePath() string                 { return b.resourcePath }
func (b *Base) ServiceName() string                  { return b.serviceName }
func (b *Base) Descriptor() domain.ServiceDescriptor { return b.desc }

func (b *Base) Bind(requestPath string) Service {
	cp := *b
	cp.bind(requestPath)
	return &cp
}

// bind records the request path and the resource segment after the api name.
func (b *Base) bind(requestPath string) {
	b.resourcePath = requestPath
	b.resource = ""
	segs := splitPath(requestPath)
	if len(segs) > 1 && domain.NormalizeAPIName(segs[0]) == b.desc.APIName {
		b.resource = segs[1]
	}
}

// SystemManager is the "system" configuration service.
type SystemManager struct{ Base }

// NewSystemManager builds the system service.
func NewSystemManager(desc domain.ServiceDescriptor) Service {
	return &SystemManager{Base{desc: desc, serviceName: "system"}}
}

func (s *SystemManager) Bind(requestPath string) Service {
	cp := *s
	cp.bind(requestPath)
	return &cp
}

// UserManager is the "user" session service.
type UserManager struct{ Base }

// NewUserManager builds the user service.
func NewUserManager(desc domain.ServiceDescriptor) Service {
	return &UserManager{Base{desc: desc, serviceName: "user"}}
}

func (s *UserManager) Bind(requestPath string) Service {
	cp := *s
	cp.bind(requestPath)
	return &cp
}

// DocsManager is the "api_docs" documentation service.
type DocsManager struct{ Base }

// NewDocsManager builds the api_docs service.
func NewDocsManager(desc domain.ServiceDescriptor) Service {
	if desc.Description == "" {
		desc.Description = "Service for a user to see the API documentation provided via Swagger."
	}
	return &DocsManager{Base{desc: desc, serviceName: "api_docs"}}
}

func (s *DocsManager) Bind(requestPath string) Service {
	cp := *s
	cp.bind(requestPath)
	return &cp
}
