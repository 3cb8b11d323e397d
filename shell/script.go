package shell

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

const scriptHTTPTimeout = 30 * time.Second

// scriptCommands are the shell commands a Lua script can call, each as
// ryuou_<name>.
var scriptCommands = []string{
	"load", "new", "show", "move", "undo", "gen", "search", "mate", "eval", "perft", "set",
}

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("ryuou_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// command returns a Lua function that runs name with the string argument
// as the rest of the command line.
func command(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		lv := L.OptString(1, "")
		sc := getShell(L)
		cmd, err := extractFields(name + " " + lv)
		if err != nil {
			log.Err(err).Str("command", name).Msg("error-parsing-script-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		r, err := sc.dispatch(cmd)
		if err != nil {
			log.Err(err).Str("command", name).Msg("error-executing-script-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		L.Push(lua.LString(r.message))
		// return number of results pushed to stack.
		return 1
	}
}

func (sc *ShellController) scriptPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil || sc.execPath == "" {
		return name
	}
	return filepath.Join(sc.execPath, name)
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}

	filepath := sc.scriptPath(cmd.args[0])

	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc

	// require("json") and require("http") for scripts that fetch or
	// decode records and results.
	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{Timeout: scriptHTTPTimeout}).Loader)

	L.SetGlobal("ryuou_shell", lsc)
	for _, name := range scriptCommands {
		L.SetGlobal("ryuou_"+name, L.NewFunction(command(name)))
	}

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Str("script", filepath).Msg("script-failed")
		return nil, err
	}
	return msg(""), nil
}
