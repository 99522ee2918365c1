package service

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"browser-pilot/internal/domain/entity"
)

var (
	ErrActionNotAllowed = errors.New("action not allowed")
	ErrUnsafeURL        = errors.New("unsafe url")
)

// DefaultAllowedKinds is every kind except deny, which only the model emits.
func DefaultAllowedKinds() []entity.ActionKind {
	return []entity.ActionKind{
		entity.ActionNavigate,
		entity.ActionClick,
		entity.ActionType,
		entity.ActionScroll,
		entity.ActionScreenshot,
		entity.ActionGetText,
		entity.ActionSearch,
		entity.ActionGetLinks,
		entity.ActionRemember,
		entity.ActionRecall,
		entity.ActionReflect,
	}
}

// ActionValidator enforces the kind whitelist and the navigation URL policy
// before anything reaches the controller.
type ActionValidator struct {
	allowed map[entity.ActionKind]bool
}

func NewActionValidator(allowed []entity.ActionKind) *ActionValidator {
	if len(allowed) == 0 {
		allowed = DefaultAllowedKinds()
	}
	v := &ActionValidator{allowed: make(map[entity.ActionKind]bool, len(allowed))}
	for _, k := range allowed {
		v.allowed[k] = true
	}
	return v
}

func (v *ActionValidator) Allowed(kind entity.ActionKind) bool {
	return v.allowed[kind]
}

func (v *ActionValidator) Validate(action entity.Action) error {
	if !v.allowed[action.Kind] {
		return fmt.Errorf("%w: %s", ErrActionNotAllowed, action.Kind)
	}
	if action.Kind == entity.ActionNavigate {
		if err := CheckURL(action.Param("url")); err != nil {
			return err
		}
	}
	return nil
}

// Filter splits actions into the ones that pass validation and the ones that
// do not, keeping order in both.
func (v *ActionValidator) Filter(actions []entity.Action) (allowed, blocked []entity.Action) {
	for _, a := range actions {
		if err := v.Validate(a); err != nil {
			blocked = append(blocked, a)
			continue
		}
		allowed = append(allowed, a)
	}
	return allowed, blocked
}

// CheckURL accepts http and https URLs whose host is not loopback,
// unspecified, private or link-local.
func CheckURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsafeURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: host %s", ErrUnsafeURL, host)
	}

	ip := net.ParseIP(host)
	if ip == nil && numericHost(host) {
		// Browsers read 2130706433, 0x7f000001, 017700000001 and 127.1 as
		// IPv4 addresses.
		if ip = parseNumericIPv4(host); ip == nil {
			return fmt.Errorf("%w: malformed numeric host %s", ErrUnsafeURL, host)
		}
	}
	if ip != nil && !publicIP(ip) {
		return fmt.Errorf("%w: host %s", ErrUnsafeURL, host)
	}
	return nil
}

func publicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast())
}

// numericHost reports whether the last label is a number, which makes the
// whole host an IPv4 address in URL parsing.
func numericHost(host string) bool {
	last := host[strings.LastIndex(host, ".")+1:]
	if last == "" {
		return false
	}
	if strings.HasPrefix(last, "0x") {
		return isDigits(last[2:], 16)
	}
	return isDigits(last, 10)
}

func isDigits(s string, base int) bool {
	for _, r := range s {
		if _, ok := digitValue(r, base); !ok {
			return false
		}
	}
	return true
}

func digitValue(r rune, base int) (uint64, bool) {
	var d uint64
	switch {
	case r >= '0' && r <= '9':
		d = uint64(r - '0')
	case r >= 'a' && r <= 'f':
		d = uint64(r-'a') + 10
	default:
		return 0, false
	}
	return d, d < uint64(base)
}

// parseNumericIPv4 follows the URL standard IPv4 parser: up to four parts,
// each decimal, 0x hex or 0-prefixed octal, the last part filling the
// remaining bytes.
func parseNumericIPv4(host string) net.IP {
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return nil
	}

	nums := make([]uint64, len(parts))
	for i, p := range parts {
		n, ok := parseIPv4Part(p)
		if !ok {
			return nil
		}
		nums[i] = n
	}

	var addr uint64
	for i, n := range nums[:len(nums)-1] {
		if n > 255 {
			return nil
		}
		addr |= n << (8 * (3 - i))
	}
	last := nums[len(nums)-1]
	if last >= 1<<(8*(5-len(nums))) {
		return nil
	}
	addr |= last

	return net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
}

func parseIPv4Part(p string) (uint64, bool) {
	base := 10
	switch {
	case p == "":
		return 0, false
	case strings.HasPrefix(p, "0x"):
		base, p = 16, p[2:]
		if p == "" {
			return 0, true
		}
	case len(p) > 1 && p[0] == '0':
		base, p = 8, p[1:]
	}

	var n uint64
	for _, r := range p {
		d, ok := digitValue(r, base)
		if !ok {
			return 0, false
		}
		n = n*uint64(base) + d
		if n > 1<<32 {
			return 0, false
		}
	}
	return n, true
}
