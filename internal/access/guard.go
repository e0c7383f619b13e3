package access

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

// Capability is a resource/action pair checked by the Guard.
type Capability struct {
	Resource string
	Action   string
}

var (
	CreateOrder       = Capability{"orders", "create"}
	ListOrders        = Capability{"orders", "list"}
	ReadReceipt       = Capability{"orders", "receipt"}
	VendorAnalytics   = Capability{"analytics", "vendor"}
	SupplierAnalytics = Capability{"analytics", "supplier"}
	PublishProduct    = Capability{"catalog", "publish"}
	BrowseCategory    = Capability{"catalog", "browse"}
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

func defaultPolicy() [][]string {
	grant := func(r Role, c Capability) []string { return []string{string(r), c.Resource, c.Action} }
	return [][]string{
		grant(RoleVendor, CreateOrder),
		grant(RoleVendor, ListOrders),
		grant(RoleVendor, ReadReceipt),
		grant(RoleVendor, VendorAnalytics),
		grant(RoleVendor, BrowseCategory),
		grant(RoleSupplier, ListOrders),
		grant(RoleSupplier, ReadReceipt),
		grant(RoleSupplier, SupplierAnalytics),
		grant(RoleSupplier, PublishProduct),
	}
}

// Guard answers whether a principal's role holds a capability. The policy is
// fixed at construction and only read afterwards.
type Guard struct {
	enforcer *casbin.Enforcer
}

func NewGuard() (*Guard, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicy()); err != nil {
		return nil, fmt.Errorf("failed to load access policy: %w", err)
	}
	return &Guard{enforcer: e}, nil
}

// Require returns an apperr.ErrForbidden error unless p may exercise c.
func (g *Guard) Require(p Principal, c Capability) error {
	if p.UserID == "" || !p.Role.Valid() {
		return fmt.Errorf("%w: unauthenticated principal", apperr.ErrForbidden)
	}
	ok, err := g.enforcer.Enforce(string(p.Role), c.Resource, c.Action)
	if err != nil {
		return fmt.Errorf("%w: access check: %v", apperr.ErrInternal, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s may not %s %s", apperr.ErrForbidden, p.Role, c.Action, c.Resource)
	}
	return nil
}
