// Package ir defines the values that flow through a microflo network.
//
// This package contains value definitions only. All other internal packages
// import ir; ir imports nothing internal, so packets stay the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Packets are immutable once constructed (unexported fields, value receivers)
//   - NO float kinds - microcontroller targets only carry int64, bool, string and bang
//   - Trace serialization goes through MarshalCanonical for byte-stable output
//   - JSON tags use snake_case
package ir
