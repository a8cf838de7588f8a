package env

// Bucket is the access-control category of a variable.
type Bucket string

const (
	BucketServer Bucket = "server"
	BucketClient Bucket = "client"
	BucketShared Bucket = "shared"
)

// Buckets lists the categories in precedence order.
func Buckets() []Bucket { return []Bucket{BucketServer, BucketClient, BucketShared} }

// PrefixConfig configures per-bucket key prefixes. All, when non-empty,
// applies uniformly to every bucket; otherwise the per-bucket fields are used
// with absent ones defaulting to "".
type PrefixConfig struct {
	All    string
	Server string
	Client string
	Shared string
}

// Prefixes is the resolved prefix table: exactly one entry per bucket, each
// possibly empty.
type Prefixes struct {
	Server string
	Client string
	Shared string
}

// Resolve normalizes the configuration into a total per-bucket table. It
// never fails: the zero value resolves to all-empty prefixes.
func (c PrefixConfig) Resolve() Prefixes {
	if c.All != "" {
		return Prefixes{Server: c.All, Client: c.All, Shared: c.All}
	}
	return Prefixes{Server: c.Server, Client: c.Client, Shared: c.Shared}
}

// For returns the prefix of the given bucket.
func (p Prefixes) For(b Bucket) string {
	switch b {
	case BucketClient:
		return p.Client
	case BucketShared:
		return p.Shared
	default:
		return p.Server
	}
}
