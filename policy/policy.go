// Package policy decides whether an actor may perform an action on a resource.
// Decisions are pure: no I/O, no persistence access, no side effects. Handlers
// load the target object first and consult the policy before touching storage.
package policy

// Action names the operations handlers expose on a resource.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
	ActionPublish       Action = "publish"
)

// Kind identifies which resource family a rule applies to.
type Kind string

const (
	KindUser  Kind = "user"
	KindTopic Kind = "topic"
	KindPost  Kind = "post"
)

// Actor is the requester identity. The zero value is the anonymous actor.
type Actor struct {
	ID            uint
	Staff         bool
	Authenticated bool
}

// Anonymous is the identity used for requests without credentials.
var Anonymous = Actor{}

// Ref points at the target of an object-level action. OwnerID is the user who
// holds elevated rights over the object: the post's author, or the user row
// itself. Collection-level actions pass a Ref with only the Kind set.
type Ref struct {
	Kind    Kind
	OwnerID uint
}

type rule func(a Actor, target Ref) bool

func anyone(Actor, Ref) bool { return true }

func authenticated(a Actor, _ Ref) bool { return a.Authenticated }

func staffOnly(a Actor, _ Ref) bool { return a.Authenticated && a.Staff }

func ownerOrStaff(a Actor, target Ref) bool {
	if !a.Authenticated {
		return false
	}
	return a.Staff || a.ID == target.OwnerID
}

// rules is the static permission table: (resource kind, action) -> predicate.
// Missing entries deny.
var rules = map[Kind]map[Action]rule{
	KindUser: {
		ActionList:          anyone,
		ActionRetrieve:      anyone,
		ActionCreate:        anyone,
		ActionUpdate:        ownerOrStaff,
		ActionPartialUpdate: ownerOrStaff,
		ActionDestroy:       ownerOrStaff,
	},
	KindTopic: {
		ActionList:          anyone,
		ActionRetrieve:      anyone,
		ActionCreate:        staffOnly,
		ActionUpdate:        staffOnly,
		ActionPartialUpdate: staffOnly,
		ActionDestroy:       staffOnly,
	},
	KindPost: {
		ActionList:          anyone,
		ActionRetrieve:      anyone,
		ActionCreate:        authenticated,
		ActionUpdate:        ownerOrStaff,
		ActionPartialUpdate: ownerOrStaff,
		ActionDestroy:       ownerOrStaff,
		// Publish additionally requires authorship, which the handler checks
		// against the loaded post so the failure can carry a domain message.
		ActionPublish: authenticated,
	},
}

// Can reports whether actor may perform action on the referenced resource.
func Can(actor Actor, action Action, target Ref) bool {
	actions, ok := rules[target.Kind]
	if !ok {
		return false
	}
	r, ok := actions[action]
	if !ok {
		return false
	}
	return r(actor, target)
}
