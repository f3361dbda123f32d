package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/NethermindEth/incrementer/utils"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// Custom validation for hex encoded secp256k1 keys, with or without 0x.
func validatePrivateKey(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := crypto.HexToECDSA(strings.TrimPrefix(s, "0x"))
	return err == nil
}

// Validator returns a singleton that can be used to validate various objects
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		if err := v.RegisterValidation("private_key", validatePrivateKey); err != nil {
			panic("failed to register validation: " + err.Error())
		}

		// Register these types to use their string representation for validation
		// purposes
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if n, ok := field.Interface().(utils.Network); ok {
				if n == 0 {
					return ""
				}
				return n.String()
			}
			panic("not a network")
		}, utils.Network(0))
	})
	return v
}
