package httpcore

import "github.com/google/uuid"

// Role identifies which handler owns a Context during a selector pass.
type Role int

const (
	RoleReadRequest Role = iota
	RoleWriteResponse
	RoleWriteCGIInput
	RoleReadCGIOutput
	RoleProxyWriteRequest
	RoleProxyReadResponse
	RoleProxyWriteResponse
)

func (r Role) String() string {
	switch r {
	case RoleReadRequest:
		return "read_req"
	case RoleWriteResponse:
		return "write_resp"
	case RoleWriteCGIInput:
		return "write_cgi_input"
	case RoleReadCGIOutput:
		return "read_cgi_output"
	case RoleProxyWriteRequest:
		return "proxy_write_req"
	case RoleProxyReadResponse:
		return "proxy_read_resp"
	case RoleProxyWriteResponse:
		return "proxy_write_resp"
	default:
		return "unknown"
	}
}

// Context is the per-role bundle of state registered with the selector
// under SelectFD. Multiple Contexts may share the same ClientFD (one for
// client I/O, one for CGI input).
type Context struct {
	ID uuid.UUID

	ClientFD int // owning, always present for origin requests
	CGIFD    int // 0 or one end of a CGI pipe
	ProxyFD  int // 0 or upstream socket
	SelectFD int // which fd is registered with the selector for this Context

	Role Role

	Parser   *RequestParser
	Request  *Request
	Response *Response

	CGIInput    *Buffer
	CGIOutput   *Buffer
	ProxyResp   *Buffer
	Reader      *SocketReader // buffered reader bound to SelectFD when reading
	SendProxyPP bool          // emit a PROXY protocol v1 header ahead of the proxied request

	ClientIP   string
	ClientPort int

	HostConfig *HostConfigView // resolved by process_request, nil until then
}

// NewClientContext creates the initial READ_REQ context for a freshly
// accepted client connection.
func NewClientContext(clientFD int, ip string, port int) *Context {
	parser := NewRequestParser()
	return &Context{
		ID:         uuid.New(),
		ClientFD:   clientFD,
		SelectFD:   clientFD,
		Role:       RoleReadRequest,
		Parser:     parser,
		Request:    parser.Req, // kept in sync as the parser fills it in, so an error mid-head still has a non-nil Request to report against
		Response:   NewResponse(),
		Reader:     NewSocketReader(clientFD),
		ClientIP:   ip,
		ClientPort: port,
	}
}

// HostConfigView is the subset of a resolved HostConfig a Context needs
// at request-processing time (decoupled from the config package to avoid
// an import cycle; internal/lkserver populates it from config.HostConfig).
type HostConfigView struct {
	HomeDir           string
	CGIDir            string
	ProxyHost         string
	Aliases           map[string]string
	SendProxyProtocol bool
}
