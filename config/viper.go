// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"github.com/spf13/viper"
)

// Viper represents a Source backed by an already initialized
// [viper.Viper]. It allows processes which manage their config
// files with viper to feed those values into a Manager.
type Viper struct {
	v *viper.Viper
}

// FromViper returns a Source which will apply all settings
// currently known to the given viper instance.
func FromViper(v *viper.Viper) Viper {
	return Viper{v: v}
}

// Apply implements the Source interface.
func (src Viper) Apply(store Store) error {
	if src.v == nil {
		return nil
	}
	return Map(src.v.AllSettings()).Apply(store)
}
