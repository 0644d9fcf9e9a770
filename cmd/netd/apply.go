package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/corenet/netd/pkg/network"
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

// recipeFile is the on-disk shape of --recipe: a single container's
// net/ip tuples, written the same space-separated way porto itself
// accepts them on the "net"/"ip" container properties.
type recipeFile struct {
	Container string   `yaml:"container"`
	Net       []string `yaml:"net"`
	IP        []string `yaml:"ip"`
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a single container's net/ip recipe against the host network",
	Long: `apply reads a YAML recipe file describing one container's "net"
and "ip" tuples, runs Namespace Setup against a synthetic single-node
container tree, and prints the resulting device/gateway/NAT assignment.

It exists to exercise recipe dispatch without a real container runtime
behind it; a real caller drives network.ApplyRecipe from its own
container tree instead.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("config", "c", "", "Path to netd.yaml (uses built-in defaults if omitted)")
	applyCmd.Flags().StringP("recipe", "r", "", "Path to the recipe YAML file")
	applyCmd.MarkFlagRequired("recipe")
}

func runApply(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	recipePath, _ := cmd.Flags().GetString("recipe")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(recipePath)
	if err != nil {
		return fmt.Errorf("netd: read recipe %s: %w", recipePath, err)
	}

	var rf recipeFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return fmt.Errorf("netd: parse recipe %s: %w", recipePath, err)
	}
	if rf.Container == "" {
		return fmt.Errorf("netd: recipe is missing a container name")
	}

	tuples, err := parseNetTuples(rf.Net)
	if err != nil {
		return fmt.Errorf("netd: invalid net tuple: %w", err)
	}
	ips, err := parseIPTuples(rf.IP)
	if err != nil {
		return fmt.Errorf("netd: invalid ip tuple: %w", err)
	}

	nlh, err := nl.OpenCurrent()
	if err != nil {
		return fmt.Errorf("netd: open host netlink handle: %w", err)
	}
	hostInode, err := hostNamespaceInode()
	if err != nil {
		return fmt.Errorf("netd: resolve host namespace inode: %w", err)
	}

	var nat *network.NATBitmap
	if cfg.NATCount > 0 {
		nat = network.NewNATBitmap(int(cfg.NATCount))
	}

	host := network.NewHandle(nlh, 0, network.HandleOpts{
		Inode:  hostInode,
		IsHost: true,
		Config: cfg,
		Iter:   newStandaloneTree(),
		NAT:    nat,
	})
	defer host.Close()

	result, netHandle, err := network.ApplyRecipe(host, rf.Container, tuples, ips)
	if err != nil {
		return fmt.Errorf("netd: apply recipe: %w", err)
	}

	fmt.Printf("container %q\n", rf.Container)
	if netHandle == host {
		fmt.Println("  network: host (shared with the host network)")
	} else if netHandle != nil {
		fmt.Println("  network: dedicated namespace")
	} else {
		fmt.Println("  network: none")
	}
	if len(result.Devices) > 0 {
		fmt.Printf("  devices: %s\n", strings.Join(result.Devices, ", "))
	}
	for family, gw := range result.Gateways {
		fmt.Printf("  gateway[%s]: %s\n", family, gw)
	}
	if result.NATAddr != nil {
		fmt.Printf("  nat address: %s\n", result.NATAddr)
	}
	if result.Reused != nil {
		fmt.Println("  reused an existing L3 network")
	}

	return nil
}

// parseNetTuples turns each "<kind> [args...]" line of a "net"
// property into a types.NetTuple, the same tokenization porto uses for
// its own net property strings.
func parseNetTuples(lines []string) ([]types.NetTuple, error) {
	tuples := make([]types.NetTuple, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		tuples = append(tuples, types.NetTuple{
			Kind: types.RecipeKind(fields[0]),
			Args: fields[1:],
		})
	}
	return tuples, nil
}

// parseIPTuples turns each "<iface> <cidr>" line of an "ip" property
// into a types.IPTuple.
func parseIPTuples(lines []string) ([]types.IPTuple, error) {
	tuples := make([]types.IPTuple, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("ip tuple %q: want \"<iface> <cidr>\"", line)
		}
		ip, ipnet, err := net.ParseCIDR(fields[1])
		if err != nil {
			return nil, fmt.Errorf("ip tuple %q: %w", line, err)
		}
		ipnet.IP = ip
		tuples = append(tuples, types.IPTuple{Iface: fields[0], Addr: ipnet})
	}
	return tuples, nil
}
