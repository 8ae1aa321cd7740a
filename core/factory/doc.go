// Package factory builds modules from configuration. A module is named by a
// type string and carries a map of raw settings, which Typed decodes into
// the module's own config struct before calling its constructor:
//
//	type tankConfig struct {
//		Volume float64 `json:"volume_l"`
//	}
//	reg := factory.NewRegistry[*Tank]()
//	_ = reg.Register("tank", factory.Typed(func(c tankConfig) (*Tank, error) {
//		return &Tank{Volume: c.Volume}, nil
//	}))
//	tank, err := reg.Create(factory.ModuleConfig{Type: "tank", Conf: raw})
package factory
