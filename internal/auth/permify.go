// internal/auth/permify.go

package auth

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	v1 "buf.build/gen/go/permifyco/permify/protocolbuffers/go/base/v1"
	permify_grpc "github.com/Permify/permify-go/grpc"

	"github.com/dangerclosesec/bizcontrol/internal/model"
)

const (
	EntityCompany = "company"
	EntityUser    = "user"
)

// RelationMirror keeps an external relationship store in step with
// memberships. Authorization decisions never depend on it.
type RelationMirror interface {
	WriteMembership(ctx context.Context, membership *model.Membership) error
	DeleteMembership(ctx context.Context, membership *model.Membership) error
}

// Tuple is the relationship company:<id>#<role>@user:<id>.
type Tuple struct {
	EntityType  string
	EntityID    string
	Relation    string
	SubjectType string
	SubjectID   string
}

func (t Tuple) String() string {
	return fmt.Sprintf("%s:%s#%s@%s:%s", t.EntityType, t.EntityID, t.Relation, t.SubjectType, t.SubjectID)
}

func (t Tuple) proto() *v1.Tuple {
	return &v1.Tuple{
		Entity:   &v1.Entity{Type: t.EntityType, Id: t.EntityID},
		Relation: t.Relation,
		Subject:  &v1.Subject{Type: t.SubjectType, Id: t.SubjectID},
	}
}

// filter matches every relation between the tuple's entity and subject.
func (t Tuple) filter() *v1.TupleFilter {
	return &v1.TupleFilter{
		Entity:  &v1.EntityFilter{Type: t.EntityType, Ids: []string{t.EntityID}},
		Subject: &v1.SubjectFilter{Type: t.SubjectType, Ids: []string{t.SubjectID}},
	}
}

func MembershipTuple(m *model.Membership) Tuple {
	return Tuple{
		EntityType:  EntityCompany,
		EntityID:    m.CompanyID.String(),
		Relation:    string(m.Role),
		SubjectType: EntityUser,
		SubjectID:   m.UserID.String(),
	}
}

// NoopMirror is used when no Permify host is configured.
type NoopMirror struct{}

func (NoopMirror) WriteMembership(context.Context, *model.Membership) error  { return nil }
func (NoopMirror) DeleteMembership(context.Context, *model.Membership) error { return nil }

// PermifyMirror writes membership tuples through the Permify gRPC data API.
type PermifyMirror struct {
	client        *permify_grpc.Client
	tenant        string
	schemaVersion string
}

type PermifyOption func(*PermifyMirror)

func WithTenant(tenant string) PermifyOption {
	return func(p *PermifyMirror) { p.tenant = tenant }
}

func WithSchemaVersion(version string) PermifyOption {
	return func(p *PermifyMirror) { p.schemaVersion = version }
}

// NewPermifyMirror dials host without TLS. The tenant defaults to t1.
func NewPermifyMirror(host string, opts ...PermifyOption) (*PermifyMirror, error) {
	client, err := permify_grpc.NewClient(
		permify_grpc.Config{Endpoint: host},
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to permify at %s: %w", host, err)
	}

	p := &PermifyMirror{client: client, tenant: "t1"}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *PermifyMirror) WriteMembership(ctx context.Context, m *model.Membership) error {
	tuple := MembershipTuple(m)
	_, err := p.client.Data.WriteRelationships(ctx, &v1.RelationshipWriteRequest{
		TenantId: p.tenant,
		Metadata: &v1.RelationshipWriteRequestMetadata{SchemaVersion: p.schemaVersion},
		Tuples:   []*v1.Tuple{tuple.proto()},
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", tuple, err)
	}
	return nil
}

// DeleteMembership drops every role tuple between the user and the company,
// so a role change followed by WriteMembership leaves exactly one.
func (p *PermifyMirror) DeleteMembership(ctx context.Context, m *model.Membership) error {
	tuple := MembershipTuple(m)
	_, err := p.client.Data.DeleteRelationships(ctx, &v1.RelationshipDeleteRequest{
		TenantId: p.tenant,
		Filter:   tuple.filter(),
	})
	if err != nil {
		return fmt.Errorf("deleting relations of %s: %w", tuple, err)
	}
	return nil
}
