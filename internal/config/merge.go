package config

import "strings"

// tieredTree pairs a tier's raw YAML tree with the tier it came from, for
// origin tracking during merge.
type tieredTree struct {
	Tier Tier
	Tree map[string]interface{}
}

// merge layer-merges system, shared, and local trees in that order:
// scalars and lists are replaced wholesale at the same top-level key by
// whichever tier last sets it; "env" is the sole exception, merged
// key-wise by parsing KEY=value entries with later tiers winning on
// duplicate keys, per spec.md §4.2 step 2; a later tier's ${KEY}
// self-reference is replaced by the earlier tier's value. "repositories" is folded into
// "repos" before merging, since spec.md §6 documents them as aliases.
func merge(tiers ...tieredTree) (map[string]interface{}, map[string]Tier) {
	out := make(map[string]interface{})
	origin := make(map[string]Tier)
	var envOrder []string
	envValues := make(map[string]string)

	for _, t := range tiers {
		for key, value := range t.Tree {
			if key == "repositories" {
				key = "repos"
			}
			if key == "env" {
				for _, entry := range toStringSlice(value) {
					k, v, ok := splitEnvEntry(entry)
					if !ok {
						continue
					}
					if prev, seen := envValues[k]; seen {
						v = strings.ReplaceAll(v, "${"+k+"}", prev)
					} else {
						envOrder = append(envOrder, k)
					}
					envValues[k] = v
				}
				origin[key] = t.Tier
				continue
			}
			out[key] = value
			origin[key] = t.Tier
		}
	}

	if len(envOrder) > 0 {
		env := make([]string, 0, len(envOrder))
		for _, k := range envOrder {
			env = append(env, k+"="+envValues[k])
		}
		out["env"] = env
	}

	return out, origin
}

func toStringSlice(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func splitEnvEntry(entry string) (key, value string, ok bool) {
	for i := 0; i < len(entry); i++ {
		if entry[i] == '=' {
			return entry[:i], entry[i+1:], true
		}
	}
	return "", "", false
}
