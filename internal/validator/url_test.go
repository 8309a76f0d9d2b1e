package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTcURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want TcURL
	}{
		{
			name: "host only",
			in:   "rtmp://localhost/",
			want: TcURL{Protocol: "rtmp", Host: "localhost", Port: 1935},
		},
		{
			name: "app",
			in:   "rtmp://localhost/app",
			want: TcURL{Protocol: "rtmp", Host: "localhost", Port: 1935, App: "app"},
		},
		{
			name: "app and instance",
			in:   "rtmp://localhost/app/instance",
			want: TcURL{Protocol: "rtmp", Host: "localhost", Port: 1935, App: "app", Instance: "instance"},
		},
		{
			name: "custom port",
			in:   "rtmp://localhost:1936/app/instance",
			want: TcURL{Protocol: "rtmp", Host: "localhost", Port: 1936, App: "app", Instance: "instance"},
		},
		{
			name: "multi segment instance",
			in:   "rtmp://host.example.com/app/inst/more",
			want: TcURL{Protocol: "rtmp", Host: "host.example.com", Port: 1935, App: "app", Instance: "inst/more"},
		},
		{
			name: "escapes kept verbatim",
			in:   "rtmp://localhost/app/_definst_%3F%5Ffcs%5Fdebugreq%5F%3D228440",
			want: TcURL{Protocol: "rtmp", Host: "localhost", Port: 1935, App: "app", Instance: "_definst_%3F%5Ffcs%5Fdebugreq%5F%3D228440"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTcURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want.Protocol, got.Protocol)
			require.Equal(t, tc.want.Host, got.Host)
			require.Equal(t, tc.want.Port, got.Port)
			require.Equal(t, tc.want.App, got.App)
			require.Equal(t, tc.want.Instance, got.Instance)
			require.Equal(t, tc.in, got.FullURL)
		})
	}
}

func TestParseTcURLRejects(t *testing.T) {
	for _, in := range []string{
		"rtmp://",                   // no host
		"rtmps://localhost/app",     // tunnelled variants unsupported
		"http://localhost/app",      // wrong scheme
		"rtmp://localhost:0/app",    // port out of range
		"rtmp://localhost:worm/app", // non-numeric port
		"",                          // empty
	} {
		_, err := ParseTcURL(in)
		require.Error(t, err, "input %q", in)
	}
}
