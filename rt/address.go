package rt

// Address identifies an actor's slot in the address table. It is a nonzero
// 32-bit integer; zero is reserved for the host/root sentinel.
type Address uint32

// HostAddress is the sentinel origin used when the host itself, rather than
// an actor, is the sender of a message (spec §3).
const HostAddress Address = 0

// IsHost reports whether addr is the host sentinel.
func (a Address) IsHost() bool { return a == HostAddress }

// WellKnownAddress is the bootstrap slot assigned to one of the fixed
// platform actors. The host spawns them in exactly this order (spec §4.6,
// §6) so that guest-side constants for these addresses stay valid.
type WellKnownAddress = Address

// Fixed bootstrap ordering. Address 0 is the host; actors are installed
// into slots 1..12 in this order by Rt.Start.
const (
	PermissionsRegistry WellKnownAddress = iota + 1
	AllocatorManager
	LoggerManager
	Logger
	DefaultAllocator
	DOMAdapter
	DisplayManager
	MockAllocator
	FetchAdapter
	Web3Adapter
	IPFSAdapter
	PermissionConsent
)

// bootstrapEntry ties a well-known address to the name used to look up
// its module bytes in the configured module directory, and whether it runs
// privileged (i.e. gets print/append_element/eval_js host calls wired to
// real implementations instead of no-ops/failures).
//
// The privilege assignment is not stated procedurally in spec.md; it is
// inferred from original_source/: only the modules that actually call
// print/DOM/eval_js natively (logger, DOM adapter, display manager) need to
// run privileged. See DESIGN.md, "Open Question decisions".
type bootstrapEntry struct {
	addr       WellKnownAddress
	name       string
	privileged bool
}

// BootstrapModuleNames returns the module names Start will look up, in
// bootstrap order, so an embedding can warm caches or validate module
// availability before calling Start.
func BootstrapModuleNames() []string {
	names := make([]string, len(bootstrapOrder))
	for i, e := range bootstrapOrder {
		names[i] = e.name
	}
	return names
}

var bootstrapOrder = []bootstrapEntry{
	{PermissionsRegistry, "permissions_registry", false},
	{AllocatorManager, "allocator_manager", false},
	{LoggerManager, "logger_manager", false},
	{Logger, "logger", true},
	{DefaultAllocator, "default_allocator", false},
	{DOMAdapter, "dom", true},
	{DisplayManager, "display_manager", true},
	{MockAllocator, "mock_allocator", false},
	{FetchAdapter, "fetch", false},
	{Web3Adapter, "web3", false},
	{IPFSAdapter, "ipfs", false},
	{PermissionConsent, "permission_consent", false},
}
