package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// skippedConfigFlags is the list of command line flags that can't be set from a config file.
var skippedConfigFlags = []string{"print_version", "config_file"}

// structValueToString converts a JSON value to its string representation suitable for flag setting.
func structValueToString(value *structpb.Value) (string, error) {
	switch kind := value.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue), nil
	case *structpb.Value_NumberValue:
		// 'f' keeps large integers readable by integer flags, e.g. 1000000 instead of 1e+06.
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	case *structpb.Value_NullValue:
		return "", errors.New("null is not a flag value")
	case *structpb.Value_ListValue:
		return "", errors.New("lists are not supported")
	default:
		return "", fmt.Errorf("unsupported value kind %T", kind)
	}
}

// collectConfigFlags collects all flags with their values from the given config object into `flags`.
// Nested objects are walked as groups.
func collectConfigFlags(flags map[ /*flagName*/ string] /*flagValue*/ string, conf *structpb.Struct) error {
	fields := conf.GetFields()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		value := fields[name]
		if group := value.GetStructValue(); group != nil {
			if err := collectConfigFlags(flags, group); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			continue
		}
		if slices.Contains(skippedConfigFlags, name) {
			return fmt.Errorf("flag '%s' can't be set from a config file", name)
		}
		if flag.Lookup(name) == nil {
			return fmt.Errorf("unknown flag '%s'", name)
		}
		stringValue, err := structValueToString(value)
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", name, err)
		}
		// Check for duplicate flag entries.
		if _, alreadyExists := flags[name]; alreadyExists {
			return fmt.Errorf("flag '%s' has multiple entries in config", name)
		}
		flags[name] = stringValue
	}
	return nil
}

// ApplyConfig sets the flags listed in the JSON config `configBytes`. Flags in `keep` are left untouched.
func ApplyConfig(configBytes []byte, keep map[ /*flagName*/ string]struct{}) error {
	conf := new(structpb.Struct)
	if err := protojson.Unmarshal(configBytes, conf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	configFlags := make(map[ /*flagName*/ string] /*flagValue*/ string)
	if err := collectConfigFlags(configFlags, conf); err != nil {
		return fmt.Errorf("failed to collect flags: %w", err)
	}
	for _, flagName := range slices.Sorted(maps.Keys(configFlags)) {
		if _, onCommandLine := keep[flagName]; onCommandLine {
			slog.Debug("Flag is set on the command line; ignoring its config entry.", "flag", flagName)
			continue
		}
		if err := flag.Set(flagName, configFlags[flagName]); err != nil {
			return fmt.Errorf("failed to set flag %s: %w", flagName, err)
		}
	}
	return nil
}

// CollectUnconfigurableFlags collects all flags whose current value can't be written back through a config file,
// i.e. flags whose String form is not accepted by their own Set.
// An error exists in the results corresponding to each such flag.
func CollectUnconfigurableFlags() []error {
	errs := make([]error, 0)
	flag.VisitAll(func(f *flag.Flag) {
		if strings.HasPrefix(f.Name, "test.") { // Skip test flags.
			return
		}
		if slices.Contains(skippedConfigFlags, f.Name) {
			return
		}
		if err := f.Value.Set(f.Value.String()); err != nil {
			errs = append(errs, fmt.Errorf("flag '%s' doesn't accept its own value %q: %w", f.Name, f.Value, err))
		}
	})
	return errs
}
