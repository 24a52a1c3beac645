package main

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestSetupFromRootFlags(t *testing.T) {
	require.NoError(t, setup(rootCmd))
}

func TestPersistentFlagsReachOptions(t *testing.T) {
	pf := rootCmd.PersistentFlags()
	require.NoError(t, pf.Set("jobs", "3"))
	require.NoError(t, pf.Set("rate-limit", "4096"))
	defer func() {
		require.NoError(t, pf.Set("jobs", "0"))
		require.NoError(t, pf.Set("rate-limit", "0"))
	}()

	opts := options()
	require.Equal(t, 3, opts.Jobs)
	require.EqualValues(t, 4096, opts.RateLimit)
	require.False(t, viper.GetBool("debug"))
}

func TestPackRequiresInputAndOutput(t *testing.T) {
	rootCmd.SetArgs([]string{"pack"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "required flag")
}
