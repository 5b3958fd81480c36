package metadata

import (
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Registry owns the identifier to TypeDefinition store. It resolves
// inheritance as definitions arrive (deferring children whose parent is not
// yet registered), merges extensions into registered types, answers
// placement queries and constructs instances.
//
// Reads never lock: the store is an immutable snapshot swapped atomically.
// Every mutation copies the snapshot, applies its change under one mutex and
// publishes the copy, so readers always see a consistent type system.
type Registry struct {
	mu    sync.Mutex
	state atomic.Pointer[snapshot]

	logger    *zap.Logger
	tracer    trace.Tracer
	strategy  DiscoveryStrategy
	coreTypes []TypeIdentifier
}

// snapshot is one published version of the type system. It is never
// modified after publication.
type snapshot struct {
	types map[TypeIdentifier]*TypeDefinition
	order []TypeIdentifier

	// dependents indexes every definition by the parent it declares.
	dependents map[TypeIdentifier][]TypeIdentifier

	global      map[string][]ChildRequirement
	constraints []PlacementConstraint
}

func newSnapshot() *snapshot {
	return &snapshot{
		types:      make(map[TypeIdentifier]*TypeDefinition),
		dependents: make(map[TypeIdentifier][]TypeIdentifier),
		global:     make(map[string][]ChildRequirement),
	}
}

// clone copies the containers. Definitions are immutable and shared.
func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		types:       make(map[TypeIdentifier]*TypeDefinition, len(s.types)),
		order:       slices.Clone(s.order),
		dependents:  make(map[TypeIdentifier][]TypeIdentifier, len(s.dependents)),
		global:      make(map[string][]ChildRequirement, len(s.global)),
		constraints: slices.Clone(s.constraints),
	}
	for id, def := range s.types {
		next.types[id] = def
	}
	for id, children := range s.dependents {
		next.dependents[id] = slices.Clone(children)
	}
	for key, reqs := range s.global {
		next.global[key] = slices.Clone(reqs)
	}
	return next
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:    zap.NewNop(),
		tracer:    noop.NewTracerProvider().Tracer("metadata"),
		coreTypes: DefaultCoreTypes(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Store(newSnapshot())
	return r
}

func (r *Registry) load() *snapshot { return r.state.Load() }

func (r *Registry) publish(s *snapshot) { r.state.Store(s) }

// RegisterType builds a definition for impl with the configurator and
// registers it.
func (r *Registry) RegisterType(impl Implementation, configure func(*TypeDefinitionBuilder)) error {
	b := NewTypeDefinitionBuilder(impl)
	if configure != nil {
		configure(b)
	}
	def, err := b.Build()
	if err != nil {
		return err
	}
	return r.Register(def)
}

// Register stores a built definition. If its parent is registered and
// resolved the inherited rules are merged immediately; otherwise the
// definition is deferred until the parent arrives. Registering a type
// resolves every deferred descendant waiting on it.
//
// Registering the same implementation again replaces the definition.
// Registering a different implementation under a taken identifier fails
// with ErrRegistrationConflict.
func (r *Registry) Register(def *TypeDefinition) error {
	if def == nil {
		return newInvalidDefinition(TypeIdentifier{}, "definition is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.load().clone()
	if err := next.register(def, r.logger); err != nil {
		return err
	}
	r.publish(next)
	return nil
}

func (s *snapshot) register(def *TypeDefinition, logger *zap.Logger) error {
	id := def.id
	existing, replacing := s.types[id]
	if replacing && !existing.implementation.SameAs(def.implementation) {
		return newRegistrationConflict(id, existing.implementation, def.implementation)
	}
	if def.hasParent && s.inheritsFrom(def.parent, id) {
		return newInvalidDefinition(id, "circular inheritance through "+def.parent.QualifiedName())
	}

	if replacing {
		if existing.hasParent {
			s.removeDependent(existing.parent, id)
		}
		logger.Debug("replacing type definition", zap.String("type", id.QualifiedName()))
	} else {
		s.order = append(s.order, id)
	}

	def = def.unresolved()
	if def.hasParent {
		s.dependents[def.parent] = append(s.dependents[def.parent], id)
		if parent, ok := s.types[def.parent]; ok && parent.resolved {
			def = def.inheritFrom(parent)
			logger.Debug("resolved inheritance",
				zap.String("type", id.QualifiedName()),
				zap.String("parent", def.parent.QualifiedName()))
		} else {
			logger.Debug("deferred inheritance",
				zap.String("type", id.QualifiedName()),
				zap.String("parent", def.parent.QualifiedName()))
		}
	}
	s.types[id] = def

	logger.Debug("registered type",
		zap.String("type", id.QualifiedName()),
		zap.String("implementation", def.implementation.Name))

	if def.resolved {
		s.resolveDescendants(id, logger)
	}
	return nil
}

// inheritsFrom reports whether walking up from start reaches target.
func (s *snapshot) inheritsFrom(start, target TypeIdentifier) bool {
	seen := make(map[TypeIdentifier]bool)
	for cur := start; ; {
		if cur == target {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		def, ok := s.types[cur]
		if !ok || !def.hasParent {
			return false
		}
		cur = def.parent
	}
}

// resolveDescendants re-derives the inherited rules of every definition
// below root. Only root's own dependents are visited, so definitions waiting
// on a parent that never arrives cost nothing here.
func (s *snapshot) resolveDescendants(root TypeIdentifier, logger *zap.Logger) {
	queue := []TypeIdentifier{root}
	visited := map[TypeIdentifier]bool{root: true}
	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]
		parent := s.types[parentID]

		for _, childID := range s.dependents[parentID] {
			if visited[childID] {
				continue
			}
			visited[childID] = true
			child, ok := s.types[childID]
			if !ok {
				continue
			}
			wasResolved := child.resolved
			s.types[childID] = child.inheritFrom(parent)
			if !wasResolved {
				logger.Debug("resolved deferred inheritance",
					zap.String("type", childID.QualifiedName()),
					zap.String("parent", parentID.QualifiedName()))
			}
			queue = append(queue, childID)
		}
	}
}

func (s *snapshot) removeDependent(parent, child TypeIdentifier) {
	children := slices.DeleteFunc(s.dependents[parent], func(id TypeIdentifier) bool { return id == child })
	if len(children) == 0 {
		delete(s.dependents, parent)
		return
	}
	s.dependents[parent] = children
}

// ExtendType adds declarations to the type registered with the named
// implementation. The extension runs on a builder preset with the type's
// identity and parent; it may add accepts rules and a description but may
// not change identity or parent. The type's inherited rules are kept.
// Descendants that already resolved keep the rules they inherited; types
// registered afterwards inherit the extended rules.
func (r *Registry) ExtendType(implName string, extension func(*TypeDefinitionBuilder)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.load()
	for _, id := range s.order {
		if def := s.types[id]; def.implementation.Name == implName {
			return r.extendLocked(s, def, extension)
		}
	}
	return newUnknownType(implName, s.sortedNames()).
		WithSuggestion("register the type before extending it")
}

// ExtendTypeByID is ExtendType addressed by identifier.
func (r *Registry) ExtendTypeByID(id TypeIdentifier, extension func(*TypeDefinitionBuilder)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.load()
	def, ok := s.types[NewTypeIdentifier(id.Type, id.SubType)]
	if !ok {
		return s.unknownType(id.Type, id.SubType)
	}
	return r.extendLocked(s, def, extension)
}

func (r *Registry) extendLocked(s *snapshot, def *TypeDefinition, extension func(*TypeDefinitionBuilder)) error {
	b := NewTypeDefinitionBuilder(def.implementation).Type(def.id.Type).SubType(def.id.SubType)
	if def.hasParent {
		b.InheritsFrom(def.parent.Type, def.parent.SubType)
	}
	if extension != nil {
		extension(b)
	}
	ext, err := b.Build()
	if err != nil {
		return err
	}
	if ext.id != def.id {
		return newInvalidDefinition(def.id, "extension cannot change the type identity").
			WithExpected(def.id.QualifiedName()).
			WithActual(ext.id.QualifiedName())
	}
	if ext.hasParent != def.hasParent || ext.parent != def.parent {
		return newInvalidDefinition(def.id, "extension cannot change the parent type").
			WithExpected(def.ParentQualifiedName()).
			WithActual(ext.ParentQualifiedName())
	}

	next := s.clone()
	merged := def.extend(ext)
	next.types[def.id] = merged
	r.publish(next)

	r.logger.Debug("extended type",
		zap.String("type", def.id.QualifiedName()),
		zap.Int("accepts_children", len(merged.children)),
		zap.Int("accepts_parents", len(merged.parents)))
	return nil
}

// AcceptsChild reports whether the parent type accepts the child, through
// its own (direct or inherited) rules or through a global requirement. An
// unregistered parent accepts nothing.
func (r *Registry) AcceptsChild(parentType, parentSubType, childType, childSubType, childName string) bool {
	s := r.load()
	def, ok := s.types[NewTypeIdentifier(parentType, parentSubType)]
	if !ok {
		return false
	}
	if def.AcceptsChild(childType, childSubType, childName) {
		return true
	}
	return s.globalAccepts(parentType, parentSubType, childType, childSubType, childName)
}

// AcceptsParent reports whether the child type may be placed under the
// parent with the given name, according to the child's rules.
func (r *Registry) AcceptsParent(childType, childSubType, parentType, parentSubType, childName string) bool {
	def, ok := r.load().types[NewTypeIdentifier(childType, childSubType)]
	if !ok {
		return false
	}
	return def.AcceptsParent(parentType, parentSubType, childName)
}

// TypeDefinition returns the definition registered for type and subtype.
func (r *Registry) TypeDefinition(typ, subType string) (*TypeDefinition, bool) {
	def, ok := r.load().types[NewTypeIdentifier(typ, subType)]
	return def, ok
}

// TypeDefinitionByID returns the definition registered for id.
func (r *Registry) TypeDefinitionByID(id TypeIdentifier) (*TypeDefinition, bool) {
	return r.TypeDefinition(id.Type, id.SubType)
}

// FindType is TypeDefinition returning ErrUnknownType with the registered
// alternatives when nothing matches.
func (r *Registry) FindType(typ, subType string) (*TypeDefinition, error) {
	s := r.load()
	if def, ok := s.types[NewTypeIdentifier(typ, subType)]; ok {
		return def, nil
	}
	return nil, s.unknownType(typ, subType)
}

// unknownType lists subtypes of the same primary type when there are any,
// otherwise the first ten registered names.
func (s *snapshot) unknownType(typ, subType string) *RegistryError {
	id := NewTypeIdentifier(typ, subType)
	var alternatives []string
	for _, name := range s.sortedNames() {
		if other, err := ParseTypeIdentifier(name); err == nil && other.Type == id.Type {
			alternatives = append(alternatives, name)
		}
	}
	if len(alternatives) == 0 {
		alternatives = s.sortedNames()
		if len(alternatives) > 10 {
			alternatives = alternatives[:10]
		}
	}
	return newUnknownType(id.QualifiedName(), alternatives)
}

// IsRegistered reports whether a definition exists for type and subtype.
func (r *Registry) IsRegistered(typ, subType string) bool {
	_, ok := r.TypeDefinition(typ, subType)
	return ok
}

// HasType reports whether any subtype of the primary type is registered.
func (r *Registry) HasType(typ string) bool {
	typ = normalize(typ)
	for id := range r.load().types {
		if id.Type == typ {
			return true
		}
	}
	return false
}

// RegisteredTypes returns all identifiers in registration order.
func (r *Registry) RegisteredTypes() []TypeIdentifier {
	return slices.Clone(r.load().order)
}

// RegisteredTypeNames returns the sorted qualified names of all types.
func (r *Registry) RegisteredTypeNames() []string {
	return r.load().sortedNames()
}

func (s *snapshot) sortedNames() []string {
	names := make([]string, 0, len(s.order))
	for _, id := range s.order {
		names = append(names, id.QualifiedName())
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []*TypeDefinition {
	s := r.load()
	defs := make([]*TypeDefinition, 0, len(s.order))
	for _, id := range s.order {
		defs = append(defs, s.types[id])
	}
	return defs
}

// TypesOf returns the definitions whose primary type is typ, sorted by subtype.
func (r *Registry) TypesOf(typ string) []*TypeDefinition {
	typ = normalize(typ)
	var defs []*TypeDefinition
	for _, def := range r.Definitions() {
		if def.id.Type == typ {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].id.SubType < defs[j].id.SubType })
	return defs
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.load().order) }

// DeferredTypes returns the sorted identifiers of definitions still waiting
// on their parent.
func (r *Registry) DeferredTypes() []TypeIdentifier {
	return r.load().deferred()
}

func (s *snapshot) deferred() []TypeIdentifier {
	var out []TypeIdentifier
	for _, id := range s.order {
		if !s.types[id].resolved {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName() < out[j].QualifiedName() })
	return out
}

// Clear drops every definition, requirement and constraint.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publish(newSnapshot())
	r.logger.Debug("registry cleared")
}

// Logger returns the registry's logger.
func (r *Registry) Logger() *zap.Logger { return r.logger }
