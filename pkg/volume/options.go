package volume

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/volbridge/internal/bytesize"
)

// DecodeOptions decodes backend options into out, which must be a pointer
// to a struct with mapstructure tags. Strings are converted to durations,
// byte sizes and numbers where the target field asks for them.
func DecodeOptions(opts map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			bytesize.DecodeHook(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}
