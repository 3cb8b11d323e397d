package shell

import (
	"embed"
	"io"
	"io/fs"
	"strings"
)

//go:embed helptext/*.txt
var helptext embed.FS

func usage(w io.Writer, version string) {
	dat, err := fs.ReadFile(helptext, "helptext/usage.txt")
	if err != nil {
		io.WriteString(w, "Error loading helptext: "+err.Error())
		return
	}
	if version != "" {
		io.WriteString(w, "ryuou "+version+"\n\n")
	}
	io.WriteString(w, string(dat))
}

func usageTopic(w io.Writer, topic string) {
	dat, err := fs.ReadFile(helptext, "helptext/"+topic+".txt")
	if err != nil {
		io.WriteString(w, "There is no help text for the topic "+topic+"\n")
		return
	}
	io.WriteString(w, string(dat))
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb, sc.gitVersion)
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}
