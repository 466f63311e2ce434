package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

// luaEvalTimeout bounds local Lua manifest evaluation when the caller's
// context has no deadline.
const luaEvalTimeout = 5 * time.Second

// sandboxLuaVM removes every library that can touch the system, load
// external code, or bypass the sandbox. string, table and math stay.
func sandboxLuaVM(L *lua.LState) {
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)

	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)

	L.SetGlobal("debug", lua.LNil)
}

// newSandboxedVM creates a Lua state with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}

// LuaError reports a failure evaluating a local Lua manifest.
type LuaError struct {
	Source string
	Detail string
}

func (e *LuaError) Error() string {
	return fmt.Sprintf("lua manifest %s: %s", e.Source, e.Detail)
}

// ParseLua evaluates a sandboxed Lua manifest. The script either returns a
// table or assigns the global "packages"; the table has the same shape as
// the JSON manifest. info, when non-nil, is exposed as the read-only
// "platform" global.
func ParseLua(ctx context.Context, source, code string, info *platform.Info) (Manifest, []error, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, luaEvalTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if info != nil {
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	fn, err := L.LoadString(code)
	if err != nil {
		return nil, nil, &LuaError{Source: source, Detail: err.Error()}
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, nil, &LuaError{Source: source, Detail: err.Error()}
	}

	result := L.Get(-1)
	L.Pop(1)
	if result.Type() != lua.LTTable {
		result = L.GetGlobal("packages")
	}
	table, ok := result.(*lua.LTable)
	if !ok {
		return nil, nil, &LuaError{
			Source: source,
			Detail: fmt.Sprintf("expected a packages table, got %s", result.Type()),
		}
	}

	// Round-trip through JSON so Lua definitions get exactly the same
	// decoding and normalization as the remote manifest.
	data, err := json.Marshal(luaToGo(table))
	if err != nil {
		return nil, nil, &LuaError{Source: source, Detail: err.Error()}
	}
	if string(data) == "null" {
		return Manifest{}, nil, nil
	}

	return Parse(data)
}

// luaToGo converts a Lua value to plain Go values. Tables with an array part
// become slices (nil holes left by platform conditionals are dropped); other
// tables become string-keyed maps; empty tables become nil.
func luaToGo(value lua.LValue) interface{} {
	switch v := value.(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		return bool(v)
	case *lua.LTable:
		if n := v.MaxN(); n > 0 {
			items := make([]interface{}, 0, n)
			for i := 1; i <= n; i++ {
				if item := v.RawGetInt(i); item != lua.LNil {
					items = append(items, luaToGo(item))
				}
			}
			return items
		}
		obj := make(map[string]interface{})
		v.ForEach(func(key, val lua.LValue) {
			if k, ok := key.(lua.LString); ok && val != lua.LNil {
				obj[string(k)] = luaToGo(val)
			}
		})
		if len(obj) == 0 {
			return nil
		}
		return obj
	default:
		return nil
	}
}
