// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"sync"

	"cosmossdk.io/math"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	check(v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	}))
	check(v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		x, ok := math.NewIntFromString(fl.Field().String())
		return ok && !x.IsNegative()
	}))
	return v
})

// Validator returns the validator used for configuration, with the cron
// and amount rules registered.
func Validator() *validator.Validate { return validate() }

func (c *Config) Validate() error {
	return validate().Struct(c)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
