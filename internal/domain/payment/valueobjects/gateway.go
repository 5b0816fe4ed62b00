package valueobjects

import "fmt"

// Gateway identifies a mobile-money provider integrated by the platform.
type Gateway string

const (
	GatewayBkash Gateway = "bkash"
	GatewayNagad Gateway = "nagad"
)

func NewGateway(name string) (Gateway, error) {
	g := Gateway(name)
	if !g.IsValid() {
		return "", fmt.Errorf("unsupported gateway: %s", name)
	}
	return g, nil
}

func (g Gateway) IsValid() bool {
	switch g {
	case GatewayBkash, GatewayNagad:
		return true
	default:
		return false
	}
}

func (g Gateway) String() string {
	return string(g)
}
