package connector

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// MaskedPassword replaces the password wherever a descriptor is rendered.
const MaskedPassword = "***"

// Descriptor is a parsed connection descriptor: the semicolon-delimited
// key=value string identifying a database endpoint and its credentials.
type Descriptor struct {
	Server   string
	Database string
	Username string
	Password string
	Trusted  bool
}

// Descriptor fields addressable through Require.
const (
	FieldServer   = "Server"
	FieldDatabase = "Database"
	FieldUsername = "User Id"
	FieldPassword = "Password"
)

// descriptorKeys maps every recognised key alias (lower-cased) to the
// canonical field it sets.
var descriptorKeys = map[string]string{
	"server":              FieldServer,
	"data source":         FieldServer,
	"database":            FieldDatabase,
	"initial catalog":     FieldDatabase,
	"user id":             FieldUsername,
	"uid":                 FieldUsername,
	"password":            FieldPassword,
	"pwd":                 FieldPassword,
	"trusted_connection":  "trusted",
	"integrated security": "trusted",
}

// ParseDescriptor parses a connection descriptor. Pairs are separated by
// semicolons and split at the first '='. Keys match case-insensitively, the
// last occurrence of a field wins (aliases included) and unknown keys are
// ignored. An empty descriptor, a segment without '=' or an empty key is a
// ValidationError.
func ParseDescriptor(raw string) (Descriptor, error) {
	var d Descriptor
	if strings.TrimSpace(raw) == "" {
		return d, &ValidationError{Message: "connection string is required"}
	}

	for i, segment := range strings.Split(raw, ";") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			return Descriptor{}, &ValidationError{
				Message: fmt.Sprintf("malformed connection string: segment %d has no '='", i+1),
			}
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return Descriptor{}, &ValidationError{
				Message: fmt.Sprintf("malformed connection string: segment %d has an empty key", i+1),
			}
		}
		value = strings.TrimSpace(value)

		switch descriptorKeys[key] {
		case FieldServer:
			d.Server = value
		case FieldDatabase:
			d.Database = value
		case FieldUsername:
			d.Username = value
		case FieldPassword:
			d.Password = value
		case "trusted":
			d.Trusted = parseTrusted(value)
		}
	}

	return d, nil
}

func parseTrusted(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "sspi", "1":
		return true
	}
	return false
}

// splitServer separates an optional "tcp:" prefix, a "\instance" suffix and
// a port given as "host,port" or "host:port".
func splitServer(server string) (host string, port int, err error) {
	s := server
	if len(s) >= 4 && strings.EqualFold(s[:4], "tcp:") {
		s = s[4:]
	}
	if i := strings.IndexByte(s, '\\'); i >= 0 {
		s = s[:i]
	}

	sep := strings.LastIndexAny(s, ",:")
	if sep < 0 {
		return s, 0, nil
	}
	p, convErr := strconv.Atoi(strings.TrimSpace(s[sep+1:]))
	if convErr != nil || p <= 0 || p > 65535 {
		return "", 0, &ValidationError{Message: fmt.Sprintf("invalid port in server %q", server)}
	}
	return strings.TrimSpace(s[:sep]), p, nil
}

// Endpoint splits the server value into host and port for network drivers.
// A port that is not a number in 1-65535 is a ValidationError.
func (d Descriptor) Endpoint() (string, int, error) {
	return splitServer(d.Server)
}

// Host returns the server host without port or instance name.
func (d Descriptor) Host() string {
	h, _, _ := splitServer(d.Server)
	return h
}

// Port returns the port carried by the server value, or 0 when absent.
func (d Descriptor) Port() int {
	_, p, _ := splitServer(d.Server)
	return p
}

// Instance returns the SQL Server named instance ("host\instance"), if any.
func (d Descriptor) Instance() string {
	if i := strings.IndexByte(d.Server, '\\'); i >= 0 {
		inst := d.Server[i+1:]
		if j := strings.IndexAny(inst, ",:"); j >= 0 {
			inst = inst[:j]
		}
		return inst
	}
	return ""
}

// Require returns a ValidationError naming the first of the given fields
// that is empty.
func (d Descriptor) Require(fields ...string) error {
	for _, f := range fields {
		var v string
		switch f {
		case FieldServer:
			v = d.Server
		case FieldDatabase:
			v = d.Database
		case FieldUsername:
			v = d.Username
		case FieldPassword:
			v = d.Password
		}
		if v == "" {
			return &ValidationError{Message: fmt.Sprintf("connection string is missing %s", f)}
		}
	}
	return nil
}

// Masked renders the descriptor in canonical key order with the password
// replaced by MaskedPassword. Only fields that are set are rendered.
func (d Descriptor) Masked() string {
	var b strings.Builder
	write := func(k, v string) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte(';')
	}
	if d.Server != "" {
		write(FieldServer, d.Server)
	}
	if d.Database != "" {
		write(FieldDatabase, d.Database)
	}
	if d.Username != "" {
		write(FieldUsername, d.Username)
	}
	if d.Password != "" {
		write(FieldPassword, MaskedPassword)
	}
	if d.Trusted {
		write("Trusted_Connection", "True")
	}
	return b.String()
}

// String returns the masked form so that descriptors never leak secrets
// through fmt verbs.
func (d Descriptor) String() string { return d.Masked() }

// LogValue implements slog.LogValuer.
func (d Descriptor) LogValue() slog.Value { return slog.StringValue(d.Masked()) }

// Redact replaces every occurrence of the password in msg.
func (d Descriptor) Redact(msg string) string {
	if d.Password == "" {
		return msg
	}
	return strings.ReplaceAll(msg, d.Password, MaskedPassword)
}
