// Package shell puts leaf's bin directory on the user's PATH.
//
// Two pieces cooperate:
//
//	# printed by `leaf activate <shell>`, evaluated at shell startup
//	eval "$(leaf activate bash)"
//
// ActivationScript renders the PATH snippet for bash, zsh or fish, and
// Manager.SetupIntegration appends the eval line above to the shell's rc file:
//   - bash: ~/.bashrc
//   - zsh: ~/.zshrc
//   - fish: ~/.config/fish/config.fish
//
// Rc file edits are idempotent (an existing "leaf activate" line is left
// alone), optionally backed up, and written through a temp file and rename.
package shell
