package main

import "testing"

func TestCompletionArgs(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{[]string{"bash"}, false},
		{[]string{"zsh"}, false},
		{[]string{"fish"}, false},
		{[]string{"powershell"}, true},
		{[]string{}, true},
		{[]string{"bash", "zsh"}, true},
	}
	for _, tt := range tests {
		err := completionCmd.Args(completionCmd, tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("completion %v failed: expected error %v, got %v", tt.args, tt.wantErr, err)
		}
	}
}
